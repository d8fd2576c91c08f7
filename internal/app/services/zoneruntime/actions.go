package zoneruntime

import (
	"context"

	"github.com/nexusrealms/worldcore/internal/app/domain/combat"
	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	"github.com/nexusrealms/worldcore/internal/app/domain/item"
	"github.com/nexusrealms/worldcore/internal/app/domain/ledger"
	"github.com/nexusrealms/worldcore/internal/app/domain/quest"
	"github.com/nexusrealms/worldcore/internal/app/domain/recipe"
	"github.com/nexusrealms/worldcore/internal/app/domain/technique"
	"github.com/nexusrealms/worldcore/internal/apperrors"
)

// Verb names one of the in-zone action verbs the dispatcher routes onto a
// Runtime's queue (spec.md §6 "Dispatcher surface"). Cross-zone and
// zone-independent verbs (party, dungeon, transition, login/logout) are
// owned by their own managers and never reach here.
type Verb string

const (
	VerbMove          Verb = "move"
	VerbAttack        Verb = "attack"
	VerbCastTechnique Verb = "castTechnique"
	VerbGatherOre     Verb = "gatherOre"
	VerbGatherFlower  Verb = "gatherFlower"
	VerbCraft         Verb = "craft"
	VerbUpgrade       Verb = "upgrade"
	VerbApplyEnchant  Verb = "applyEnchant"
	VerbEquip         Verb = "equip"
	VerbUnequip       Verb = "unequip"
	VerbAcceptQuest   Verb = "acceptQuest"
	VerbTurnInQuest   Verb = "turnInQuest"
	VerbTalkQuest     Verb = "talkQuest"
)

// ActionRequest is one dispatcher-issued action awaiting processing on the
// zone's tick queue. Only the fields relevant to Verb are populated; the
// dispatcher is responsible for shaping a validated request before Enqueue.
type ActionRequest struct {
	Verb          Verb
	WalletAddress string
	EntityID      string

	// move
	X, Y float64

	// attack / castTechnique (target)
	TargetID string

	// castTechnique
	TechniqueID string

	// gatherOre / gatherFlower / craft / upgrade / applyEnchant (station/node)
	StationID string

	// craft / upgrade
	RecipeID string

	// applyEnchant
	CatalystTokenID string
	Slot            entity.EquipSlot

	// equip / unequip
	TokenID string

	// acceptQuest / turnInQuest / talkQuest
	NPCID   string
	QuestID string

	done chan *ActionResult
}

// ActionResult is what Enqueue's caller receives once the action has been
// processed during the zone's next tick.
type ActionResult struct {
	Data map[string]any
	Err  error
}

// Enqueue submits req onto the zone's per-tick queue (spec.md §4.1
// "Ordering guarantees": FIFO within a zone) and blocks until the runtime
// has processed it or ctx is cancelled.
func (r *Runtime) Enqueue(ctx context.Context, req *ActionRequest) (*ActionResult, error) {
	req.done = make(chan *ActionResult, 1)

	select {
	case r.queue <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.done:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drainQueue processes every action currently queued, in FIFO order, as
// spec.md §4.1 step 3 requires. New enqueues arriving after draining starts
// wait for the following tick — the channel read is non-blocking precisely
// so the tick never stalls on further dispatcher traffic.
func (r *Runtime) drainQueue(ctx context.Context, tick uint64) {
	for {
		select {
		case req := <-r.queue:
			res := r.handleAction(ctx, tick, req)
			req.done <- res
		default:
			return
		}
	}
}

func (r *Runtime) handleAction(ctx context.Context, tick uint64, req *ActionRequest) *ActionResult {
	switch req.Verb {
	case VerbMove:
		return r.handleMove(req)
	case VerbAttack:
		return r.handleAttack(req)
	case VerbCastTechnique:
		return r.handleCastTechnique(tick, req)
	case VerbGatherOre:
		return r.handleGather(ctx, tick, req, "mining", item.CategoryResource)
	case VerbGatherFlower:
		return r.handleGather(ctx, tick, req, "herbalism", item.CategoryResource)
	case VerbCraft:
		return r.handleCraft(ctx, tick, req, recipe.KindForge)
	case VerbUpgrade:
		return r.handleCraft(ctx, tick, req, recipe.KindUpgrade)
	case VerbApplyEnchant:
		return r.handleApplyEnchant(ctx, tick, req)
	case VerbEquip:
		return r.handleEquip(req)
	case VerbUnequip:
		return r.handleUnequip(req)
	case VerbAcceptQuest:
		return r.handleAcceptQuest(tick, req)
	case VerbTurnInQuest:
		return r.handleTurnInQuest(ctx, tick, req)
	case VerbTalkQuest:
		return r.handleTalkQuest(ctx, tick, req)
	default:
		return &ActionResult{Err: apperrors.ValidationError("unknown action verb").WithDetails("verb", string(req.Verb))}
	}
}

// lookupOwnedEntity resolves the common preconditions of spec.md §4.2 points
// 1-2: the entity exists in this zone and, if it carries a wallet, the
// wallet matches the request's.
func (r *Runtime) lookupOwnedEntity(req *ActionRequest) (*entity.Entity, *apperrors.GameError) {
	e, ok := r.Zone.Get(req.EntityID)
	if !ok {
		return nil, apperrors.ValidationError("entity not found in zone").WithDetails("entityId", req.EntityID)
	}
	if e.Player != nil && req.WalletAddress != "" && e.Player.WalletAddress != req.WalletAddress {
		return nil, apperrors.AuthorizationError("wallet does not own entity").WithDetails("entityId", req.EntityID)
	}
	return e, nil
}

// requireWithinRange is the single range-check helper spec.md's REDESIGN
// FLAGS section asks for, replacing ad-hoc proximity checks scattered
// through each handler.
func requireWithinRange(source, target *entity.Entity, r float64) *apperrors.GameError {
	if !source.WithinRange(target, r) {
		return apperrors.PreconditionError("target out of range").
			WithDetails("entityId", source.ID).WithDetails("targetId", target.ID).WithDetails("range", r)
	}
	return nil
}

func (r *Runtime) handleMove(req *ActionRequest) *ActionResult {
	e, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if !r.Zone.Bounds().Contains(req.X, req.Y) {
		return &ActionResult{Err: apperrors.ValidationError("destination out of zone bounds")}
	}
	if r.Zone.Terrain != nil && !r.Zone.Terrain.Walkable(int(req.X), int(req.Y)) {
		return &ActionResult{Err: apperrors.PreconditionError("destination tile not walkable")}
	}
	e.X, e.Y = req.X, req.Y
	return &ActionResult{Data: map[string]any{"x": e.X, "y": e.Y}}
}

func (r *Runtime) handleAttack(req *ActionRequest) *ActionResult {
	attacker, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if !attacker.IsAlive() {
		return &ActionResult{Err: apperrors.PreconditionError("attacker is dead")}
	}
	defender, ok := r.Zone.Get(req.TargetID)
	if !ok || !defender.IsAlive() {
		return &ActionResult{Err: apperrors.ValidationError("target not found or dead")}
	}
	if gerr := requireWithinRange(attacker, defender, attackRange(attacker)); gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if attacker.Combat == nil {
		return &ActionResult{Err: apperrors.InternalError("attacker has no combat state", nil)}
	}
	attacker.Combat.TargetID = defender.ID
	return &ActionResult{Data: map[string]any{"engaged": defender.ID}}
}

// handleCastTechnique implements spec.md §4.3's technique cast: "validates
// essence >= cost, cooldown elapsed, target type matches technique
// (self/single/aoe)". A non-damaging technique (DamageMultiplier == 0, or
// TargetSelf) never rolls damage at all.
func (r *Runtime) handleCastTechnique(tick uint64, req *ActionRequest) *ActionResult {
	caster, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if !caster.IsAlive() || caster.Vitals == nil || caster.Combat == nil {
		return &ActionResult{Err: apperrors.PreconditionError("caster cannot act")}
	}
	if caster.Player == nil || !hasTechnique(caster.Player, req.TechniqueID) {
		return &ActionResult{Err: apperrors.ValidationError("technique not learned").WithDetails("techniqueId", req.TechniqueID)}
	}

	def, ok := r.catalogs.Techniques.Get(req.TechniqueID)
	if !ok {
		return &ActionResult{Err: apperrors.ValidationError("unknown technique").WithDetails("techniqueId", req.TechniqueID)}
	}

	if caster.Combat.TechniqueCooldowns[def.ID] > tick {
		return &ActionResult{Err: apperrors.PreconditionError("technique on cooldown").WithDetails("techniqueId", def.ID)}
	}
	if caster.Vitals.Essence < def.EssenceCost {
		return &ActionResult{Err: apperrors.PreconditionError("insufficient essence").
			WithDetails("essence", caster.Vitals.Essence).WithDetails("cost", def.EssenceCost)}
	}

	var defender *entity.Entity
	switch def.TargetType {
	case technique.TargetSelf:
		if req.TargetID != "" && req.TargetID != caster.ID {
			return &ActionResult{Err: apperrors.ValidationError("technique targets self only")}
		}
	case technique.TargetSingle, technique.TargetAOE:
		d, found := r.Zone.Get(req.TargetID)
		if !found || !d.IsAlive() {
			return &ActionResult{Err: apperrors.ValidationError("target not found or dead")}
		}
		if gerr := requireWithinRange(caster, d, attackRange(caster)); gerr != nil {
			return &ActionResult{Err: gerr}
		}
		defender = d
	default:
		return &ActionResult{Err: apperrors.ValidationError("technique has no valid target type").WithDetails("techniqueId", def.ID)}
	}

	caster.Vitals.Essence -= def.EssenceCost
	if caster.Combat.TechniqueCooldowns == nil {
		caster.Combat.TechniqueCooldowns = make(map[string]uint64)
	}
	caster.Combat.TechniqueCooldowns[def.ID] = tick + def.CooldownTicks

	data := map[string]any{"techniqueId": def.ID, "essenceRemaining": caster.Vitals.Essence}

	switch def.TargetType {
	case technique.TargetSelf:
		return &ActionResult{Data: data}
	default:
		targets := []*entity.Entity{defender}
		if def.TargetType == technique.TargetAOE {
			targets = r.aoeTargets(defender, attackRange(caster))
		}

		var deaths []*entity.Entity
		totalDamage := 0
		for _, target := range targets {
			dmg := r.castDamage(tick, caster, target, def)
			totalDamage += dmg
			if target.Vitals.HP <= 0 {
				deaths = append(deaths, target)
			}
		}
		for _, victim := range deaths {
			r.handleDeath(context.Background(), tick, victim)
		}

		data["damage"] = totalDamage
		data["targetId"] = defender.ID
		return &ActionResult{Data: data}
	}
}

func hasTechnique(p *entity.PlayerData, techniqueID string) bool {
	for _, learned := range p.LearnedTechniques {
		if learned == techniqueID {
			return true
		}
	}
	return false
}

// aoeTargets returns epicenter plus every other alive combat-capable entity
// within r of it, for a TargetAOE technique's splash.
func (r *Runtime) aoeTargets(epicenter *entity.Entity, radius float64) []*entity.Entity {
	targets := []*entity.Entity{epicenter}
	for _, e := range r.Zone.All() {
		if e.ID == epicenter.ID || !e.IsAlive() || e.Combat == nil {
			continue
		}
		if epicenter.WithinRange(e, radius) {
			targets = append(targets, e)
		}
	}
	return targets
}

// castDamage applies one technique hit to target and returns the damage
// dealt, using the same active-effect percent inputs as an auto-attack but
// adding the technique's damage multiplier per spec.md §4.3's damage model.
func (r *Runtime) castDamage(tick uint64, caster, target *entity.Entity, def technique.Def) int {
	var effects []entity.ActiveEffect
	if caster.Player != nil {
		effects = caster.Player.ActiveEffects
	}

	dmg := combat.CalculateDamage(combat.DamageInput{
		AttackerStr:         attackerStr(caster),
		WeaponCoef:          caster.Combat.WeaponCoef,
		TechniqueMultiplier: def.DamageMultiplier,
		DefenderDef:         defenderDef(target),
		DefCoef:             caster.Combat.DefCoef,
		EffectPercent:       effectPercent(effects),
		NonDamaging:         def.DamageMultiplier == 0,
	})

	target.Vitals.HP -= dmg
	if target.Vitals.HP < 0 {
		target.Vitals.HP = 0
	}
	r.log.CombatResolved(tick, caster.ID, target.ID, dmg, target.Vitals.HP <= 0)
	return dmg
}

// handleGather implements spec.md §4.4 in full, including invariant G1's
// compensation: a failed mint restores the node charge and tool durability
// it had already consumed.
func (r *Runtime) handleGather(ctx context.Context, tick uint64, req *ActionRequest, profession string, category item.Category) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can gather")}
	}
	if !hasProfession(player.Player, profession) {
		return &ActionResult{Err: apperrors.PreconditionError("profession not learned").WithDetails("profession", profession)}
	}

	tool := player.Player.Equipment[entity.SlotWeapon]
	if tool == nil {
		return &ActionResult{Err: apperrors.PreconditionError("no tool equipped")}
	}
	if tool.Broken {
		return &ActionResult{Err: apperrors.PreconditionError("tool broken")}
	}

	node, ok := r.Zone.Get(req.StationID)
	if !ok || node.ResourceNode == nil {
		return &ActionResult{Err: apperrors.ValidationError("resource node not found")}
	}
	if gerr := requireWithinRange(player, node, r.cfg.Proximity.NPCProximity); gerr != nil {
		return &ActionResult{Err: gerr}
	}

	toolDef, ok := r.catalogs.Items.Get(tool.TokenID)
	if !ok || toolDef.Tier < node.ResourceNode.Tier {
		return &ActionResult{Err: apperrors.PreconditionError("tool tier below node tier")}
	}
	if node.ResourceNode.Charges <= 0 {
		return &ActionResult{Err: apperrors.PreconditionError("node depleted")}
	}

	node.ResourceNode.Charges--
	if node.ResourceNode.Charges == 0 {
		depletedAt := tick
		node.ResourceNode.DepletedAtTick = &depletedAt
	}
	tool.DecrementDurability(1)

	tokenID, qty := resourceYield(node.ResourceNode.ResourceType, category)
	handle, err := r.ledger.MintItem(ctx, player.Player.WalletAddress, tokenID, qty)
	r.recordLedgerCall(tick, ledger.OpMintItem, player.Player.WalletAddress, tokenID, qty, handle, err)
	if err != nil {
		node.ResourceNode.Charges++
		node.ResourceNode.DepletedAtTick = nil
		tool.Durability++
		tool.Broken = false
		r.log.CompensationApplied(tick, "mintItem:gather failed", player.ID, map[string]any{
			"nodeId": node.ID, "tokenId": tokenID,
		})
		return &ActionResult{Err: apperrors.LedgerTransientError("mintItem:gather", err)}
	}

	return &ActionResult{Data: map[string]any{"tokenId": tokenID, "quantity": qty, "toolDurability": tool.Durability}}
}

func hasProfession(p *entity.PlayerData, profession string) bool {
	for _, learned := range p.LearnedProfessions {
		if learned == profession {
			return true
		}
	}
	return false
}

// resourceYield maps a node's resourceType to the minted token id; nodes and
// items share the resourceType string as their token id by catalog
// convention, so one unit is minted per successful gather.
func resourceYield(resourceType string, _ item.Category) (string, uint64) {
	return resourceType, 1
}

// handleCraft implements forging and upgrading (spec.md §4.6), which share
// the burn-inputs-then-mint-output shape; upgrading differs only in which
// recipe kind is permitted at the station.
func (r *Runtime) handleCraft(ctx context.Context, tick uint64, req *ActionRequest, kind recipe.Kind) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can craft")}
	}

	station, ok := r.Zone.Get(req.StationID)
	if !ok {
		return &ActionResult{Err: apperrors.ValidationError("station not found")}
	}
	if gerr := requireWithinRange(player, station, r.cfg.Proximity.NPCProximity); gerr != nil {
		return &ActionResult{Err: gerr}
	}

	def, ok := r.catalogs.Recipes.Get(req.RecipeID)
	if !ok || def.Kind != kind || def.StationType != station.Type {
		return &ActionResult{Err: apperrors.ValidationError("recipe not available at this station")}
	}
	if player.Player.Level < def.RequiredLevel {
		return &ActionResult{Err: apperrors.PreconditionError("level below recipe requirement")}
	}

	wallet := player.Player.WalletAddress
	var burned []recipe.ItemQty
	for _, in := range def.Inputs {
		handle, err := r.ledger.BurnItem(ctx, wallet, in.TokenID, in.Quantity)
		r.recordLedgerCall(tick, ledger.OpBurnItem, wallet, in.TokenID, in.Quantity, handle, err)
		if err != nil {
			r.compensateBurns(ctx, tick, wallet, burned)
			return &ActionResult{Err: apperrors.LedgerTransientError("burnItem:craft", err)}
		}
		burned = append(burned, in)
	}

	handle, err := r.ledger.MintItem(ctx, wallet, def.Output.TokenID, def.Output.Quantity)
	r.recordLedgerCall(tick, ledger.OpMintItem, wallet, def.Output.TokenID, def.Output.Quantity, handle, err)
	if err != nil {
		r.log.LedgerInconsistency(tick, "mintItem:craft-output", wallet, err)
		return &ActionResult{Err: apperrors.LedgerPermanentError("mintItem:craft", err)}
	}

	return &ActionResult{Data: map[string]any{"tokenId": def.Output.TokenID, "quantity": def.Output.Quantity}}
}

// compensateBurns best-effort un-burns already-succeeded inputs by minting
// them back, per spec.md §4.6 "Forging": "the runtime attempts to un-burn by
// minting back successfully-burned inputs (best-effort)".
func (r *Runtime) compensateBurns(ctx context.Context, tick uint64, wallet string, burned []recipe.ItemQty) {
	for _, in := range burned {
		handle, err := r.ledger.MintItem(ctx, wallet, in.TokenID, in.Quantity)
		r.recordLedgerCall(tick, ledger.OpMintItem, wallet, in.TokenID, in.Quantity, handle, err)
		if err != nil {
			r.log.LedgerInconsistency(tick, "mintItem:compensate-burn", wallet, err)
		}
	}
}

// handleApplyEnchant implements spec.md §4.6 "Enchanting": the equipped item
// is not burned, only the catalyst is, and success appends an enchantment
// record recomputing effectiveStats.
func (r *Runtime) handleApplyEnchant(ctx context.Context, tick uint64, req *ActionRequest) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can enchant")}
	}

	altar, ok := r.Zone.Get(req.StationID)
	if !ok {
		return &ActionResult{Err: apperrors.ValidationError("altar not found")}
	}
	if gerr := requireWithinRange(player, altar, r.cfg.Proximity.AltarProximity); gerr != nil {
		return &ActionResult{Err: gerr}
	}

	equipped := player.Player.Equipment[req.Slot]
	if equipped == nil {
		return &ActionResult{Err: apperrors.PreconditionError("no item equipped in slot")}
	}

	wallet := player.Player.WalletAddress
	handle, err := r.ledger.BurnItem(ctx, wallet, req.CatalystTokenID, 1)
	r.recordLedgerCall(tick, ledger.OpBurnItem, wallet, req.CatalystTokenID, 1, handle, err)
	if err != nil {
		return &ActionResult{Err: apperrors.LedgerTransientError("burnItem:catalyst", err)}
	}

	equipped.Enchantments = append(equipped.Enchantments, entity.Enchantment{
		ID:            req.CatalystTokenID,
		AppliedAtTick: tick,
	})
	player.Player.EffectiveStats = recomputeEffectiveStats(player.Player)

	return &ActionResult{Data: map[string]any{"slot": string(req.Slot), "enchantmentCount": len(equipped.Enchantments)}}
}

func recomputeEffectiveStats(p *entity.PlayerData) entity.Stats {
	stats := p.BaseStats
	for _, eq := range p.Equipment {
		if eq == nil || eq.Broken {
			continue
		}
		if eq.RolledStats != nil {
			stats = stats.Add(*eq.RolledStats)
		}
	}
	return stats
}

func (r *Runtime) handleEquip(req *ActionRequest) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can equip")}
	}
	def, ok := r.catalogs.Items.Get(req.TokenID)
	if !ok || def.Slot == "" {
		return &ActionResult{Err: apperrors.ValidationError("item is not equippable")}
	}
	if player.Player.Equipment == nil {
		player.Player.Equipment = make(map[entity.EquipSlot]*entity.EquippedItem)
	}
	player.Player.Equipment[def.Slot] = &entity.EquippedItem{
		TokenID:       req.TokenID,
		Durability:    def.MaxDurability,
		MaxDurability: def.MaxDurability,
	}
	player.Player.EffectiveStats = recomputeEffectiveStats(player.Player)
	return &ActionResult{Data: map[string]any{"slot": string(def.Slot)}}
}

func (r *Runtime) handleUnequip(req *ActionRequest) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can unequip")}
	}
	delete(player.Player.Equipment, req.Slot)
	player.Player.EffectiveStats = recomputeEffectiveStats(player.Player)
	return &ActionResult{Data: map[string]any{"slot": string(req.Slot)}}
}

func (r *Runtime) handleAcceptQuest(tick uint64, req *ActionRequest) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can accept quests")}
	}

	npc, ok := r.Zone.Get(req.NPCID)
	if !ok {
		return &ActionResult{Err: apperrors.ValidationError("npc not found")}
	}
	if gerr := requireWithinRange(player, npc, r.cfg.Proximity.NPCProximity); gerr != nil {
		return &ActionResult{Err: gerr}
	}

	def, ok := r.catalogs.Quests.Get(req.QuestID)
	if !ok || def.OfferedByNPCID != req.NPCID {
		return &ActionResult{Err: apperrors.ValidationError("quest not offered here")}
	}
	if completedSet(player.Player)[def.ID] {
		return &ActionResult{Err: apperrors.PreconditionError("quest already completed")}
	}
	if isQuestActiveOrDone(player.Player, def.ID) {
		return &ActionResult{Err: apperrors.ConflictError("quest already active")}
	}
	if !r.catalogs.Quests.PrerequisitesSatisfied(def, completedSet(player.Player)) {
		return &ActionResult{Err: apperrors.PreconditionError("quest prerequisites not satisfied")}
	}

	player.Player.ActiveQuests = append(player.Player.ActiveQuests, entity.QuestProgress{
		QuestID: def.ID, StartedAtTick: tick,
	})
	return &ActionResult{Data: map[string]any{"questId": def.ID}}
}

// handleTalkQuest implements spec.md §4.5's talk-quest auto-complete:
// visiting the target NPC with an eligible quest accepts it if not already
// active and immediately sets progress to the objective count.
func (r *Runtime) handleTalkQuest(ctx context.Context, tick uint64, req *ActionRequest) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can talk to NPCs")}
	}

	npc, ok := r.Zone.Get(req.NPCID)
	if !ok {
		return &ActionResult{Err: apperrors.ValidationError("npc not found")}
	}
	if gerr := requireWithinRange(player, npc, r.cfg.Proximity.NPCProximity); gerr != nil {
		return &ActionResult{Err: gerr}
	}

	def, ok := r.catalogs.Quests.Get(req.QuestID)
	if !ok || def.Type != quest.TypeTalk || def.TargetNPCName != npc.ID {
		return &ActionResult{Err: apperrors.ValidationError("no matching talk quest here")}
	}

	if !isQuestActiveOrDone(player.Player, def.ID) {
		if !r.catalogs.Quests.PrerequisitesSatisfied(def, completedSet(player.Player)) {
			return &ActionResult{Err: apperrors.PreconditionError("quest prerequisites not satisfied")}
		}
		player.Player.ActiveQuests = append(player.Player.ActiveQuests, entity.QuestProgress{
			QuestID: def.ID, StartedAtTick: tick,
		})
	}
	for i := range player.Player.ActiveQuests {
		if player.Player.ActiveQuests[i].QuestID == def.ID {
			player.Player.ActiveQuests[i].Progress = def.ObjectiveCount
		}
	}

	if def.TurnInNPCID == npc.ID {
		return r.turnInQuestByDef(ctx, tick, player, def)
	}
	return &ActionResult{Data: map[string]any{"questId": def.ID, "progress": def.ObjectiveCount}}
}

func (r *Runtime) handleTurnInQuest(ctx context.Context, tick uint64, req *ActionRequest) *ActionResult {
	player, gerr := r.lookupOwnedEntity(req)
	if gerr != nil {
		return &ActionResult{Err: gerr}
	}
	if player.Player == nil {
		return &ActionResult{Err: apperrors.ValidationError("only players can turn in quests")}
	}

	npc, ok := r.Zone.Get(req.NPCID)
	if !ok {
		return &ActionResult{Err: apperrors.ValidationError("npc not found")}
	}
	if gerr := requireWithinRange(player, npc, r.cfg.Proximity.NPCProximity); gerr != nil {
		return &ActionResult{Err: gerr}
	}

	def, ok := r.catalogs.Quests.Get(req.QuestID)
	if !ok || def.TurnInNPCID != req.NPCID {
		return &ActionResult{Err: apperrors.ValidationError("quest not turned in here")}
	}

	idx := -1
	for i, qp := range player.Player.ActiveQuests {
		if qp.QuestID == def.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &ActionResult{Err: apperrors.PreconditionError("quest not active")}
	}
	if player.Player.ActiveQuests[idx].Progress < def.ObjectiveCount {
		return &ActionResult{Err: apperrors.PreconditionError("quest objective not complete")}
	}

	return r.turnInQuestByDef(ctx, tick, player, def)
}

// turnInQuestByDef grants rewards in spec.md §4.5's fixed order — XP first,
// currency next, items last — and moves the quest to completedQuests even if
// a later mint fails (explicit liveness-over-atomicity policy).
func (r *Runtime) turnInQuestByDef(ctx context.Context, tick uint64, player *entity.Entity, def quest.Def) *ActionResult {
	player.Player.ActiveQuests = removeQuestProgress(player.Player.ActiveQuests, def.ID)
	player.Player.CompletedQuests = append(player.Player.CompletedQuests, def.ID)

	player.Player.XP += def.RewardXP
	levelsGained := combat.TryLevelUp(player.Player, player.Vitals, r.cfg.Tick.MaxLevel, 1.0, r.cfg.Tick.XPGrowthRate)
	if levelsGained > 0 {
		r.Zone.LogEvent("level_up", map[string]any{"entityId": player.ID, "newLevel": player.Player.Level})
	}

	wallet := player.Player.WalletAddress
	if def.RewardCurrency > 0 {
		handle, err := r.ledger.MintCurrency(ctx, wallet, def.RewardCurrency)
		r.recordLedgerCall(tick, ledger.OpMintCurrency, wallet, "", def.RewardCurrency, handle, err)
		if err != nil {
			r.log.LedgerInconsistency(tick, "mintCurrency:quest-reward", wallet, err)
		}
	}
	for _, it := range def.RewardItems {
		handle, err := r.ledger.MintItem(ctx, wallet, it.TokenID, it.Quantity)
		r.recordLedgerCall(tick, ledger.OpMintItem, wallet, it.TokenID, it.Quantity, handle, err)
		if err != nil {
			r.log.LedgerInconsistency(tick, "mintItem:quest-reward", wallet, err)
		}
	}

	r.Zone.LogEvent("quest_completed", map[string]any{"entityId": player.ID, "questId": def.ID})
	return &ActionResult{Data: map[string]any{"questId": def.ID, "levelsGained": levelsGained}}
}

func removeQuestProgress(quests []entity.QuestProgress, questID string) []entity.QuestProgress {
	out := quests[:0]
	for _, qp := range quests {
		if qp.QuestID != questID {
			out = append(out, qp)
		}
	}
	return out
}

func isQuestActiveOrDone(p *entity.PlayerData, questID string) bool {
	for _, qp := range p.ActiveQuests {
		if qp.QuestID == questID {
			return true
		}
	}
	for _, id := range p.CompletedQuests {
		if id == questID {
			return true
		}
	}
	return false
}

func completedSet(p *entity.PlayerData) map[string]bool {
	out := make(map[string]bool, len(p.CompletedQuests))
	for _, id := range p.CompletedQuests {
		out[id] = true
	}
	return out
}
