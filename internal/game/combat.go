package game

import (
	"github.com/realmforge/realmforge-server-go/internal/game/cards"
	"github.com/realmforge/realmforge-server-go/internal/game/rules"
	"github.com/realmforge/realmforge-server-go/internal/game/zones"
	"go.uber.org/zap"
)

// attackableBases returns the bases of defender that may be attacked now:
// frontier bases while any exist, otherwise interior bases.
func attackableBases(defender *Player) []*cards.Instance {
	if frontier := defender.Deck.Cards(zones.ZoneFrontier); len(frontier) > 0 {
		return frontier
	}
	return defender.Deck.Cards(zones.ZoneInterior)
}

// LegalTargets lists what the active player may attack on defenderID: base
// instance ids, or the defender's own id once no bases remain.
func (g *Game) LegalTargets(defenderID string) []string {
	d, ok := g.Player(defenderID)
	if !ok || !d.IsAlive() {
		return nil
	}
	if bases := attackableBases(d); len(bases) > 0 {
		return instanceIDs(bases)
	}
	return []string{d.ID}
}

func (g *Game) spendCombat(idx int, action ActionType, amount int) error {
	p := g.st.players[idx]
	if amount <= 0 {
		return rules.NewActionError(rules.ErrInvalidAmount, action.String(), p.ID, "attack amount %d", amount)
	}
	if p.Combat < amount {
		return rules.NewActionError(rules.ErrInsufficientCombat, action.String(), p.ID,
			"attack of %d, have %d", amount, p.Combat)
	}
	p.Combat -= amount
	return nil
}

// resolveDefender maps a target id to a living opponent, defaulting to the
// next one in turn order.
func (g *Game) resolveDefender(idx int, action ActionType, targetID string) (int, error) {
	p := g.st.players[idx]
	if targetID == "" {
		if t := g.nextLivingOpponent(idx); t >= 0 {
			return t, nil
		}
		return -1, rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID, "no opponent left")
	}
	t := g.playerIndex(targetID)
	if t < 0 {
		return -1, rules.NewActionError(rules.ErrUnknownPlayer, action.String(), p.ID, "no player %q", targetID)
	}
	if t == idx || !g.st.players[t].IsAlive() {
		return -1, rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID, "%s cannot be attacked", targetID)
	}
	return t, nil
}

func (g *Game) attackPlayer(idx int, targetID string, amount int) error {
	const action = ActionAttackPlayer
	p := g.st.players[idx]
	t, err := g.resolveDefender(idx, action, targetID)
	if err != nil {
		return err
	}
	defender := g.st.players[t]
	if bases := attackableBases(defender); len(bases) > 0 {
		return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID,
			"%s still has %d base(s) in the way", defender.ID, len(bases))
	}
	if err := g.spendCombat(idx, action, amount); err != nil {
		return err
	}

	defender.TakeDamage(amount)
	g.emit(rules.NewEventWithAmount(rules.EventAttack, p.ID, "", defender.ID, amount))
	g.logger.Debug("player attacked",
		zap.String("attacker", p.ID),
		zap.String("defender", defender.ID),
		zap.Int("amount", amount),
		zap.Int("authority", defender.Authority),
	)
	if !defender.IsAlive() {
		g.emit(rules.NewEvent(rules.EventPlayerEliminated, defender.ID, p.ID, ""))
		g.checkGameOver()
	}
	return nil
}

func (g *Game) attackBase(idx int, baseID string, amount int) error {
	const action = ActionAttackBase
	p := g.st.players[idx]

	var owner *Player
	var base *cards.Instance
	for j, other := range g.st.players {
		if j == idx {
			continue
		}
		if c, z, ok := other.Deck.Find(baseID); ok {
			if z != zones.ZoneFrontier && z != zones.ZoneInterior {
				return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID, "%s is not a base in play", c)
			}
			owner, base = other, c
			break
		}
	}
	if base == nil {
		return rules.NewActionError(rules.ErrUnknownCard, action.String(), p.ID, "no opposing base %q", baseID)
	}
	if !owner.IsAlive() {
		return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID, "%s is eliminated", owner.ID)
	}
	legal := false
	for _, b := range attackableBases(owner) {
		if b == base {
			legal = true
			break
		}
	}
	if !legal {
		return rules.NewActionError(rules.ErrInvalidTarget, action.String(), p.ID,
			"%s is shielded by frontier bases", base)
	}
	if err := g.spendCombat(idx, action, amount); err != nil {
		return err
	}

	base.Damage += amount
	g.emit(rules.NewEventWithAmount(rules.EventAttack, p.ID, "", base.ID, amount))
	if base.Damage >= base.Type.Defense {
		g.destroyBase(owner, base, p.ID)
	}
	return nil
}

// checkGameOver ends the match once at most one player is alive.
func (g *Game) checkGameOver() {
	alive := -1
	count := 0
	for i, p := range g.st.players {
		if p.IsAlive() {
			alive = i
			count++
		}
	}
	if count > 1 {
		return
	}
	g.st.over = true
	g.st.winner = alive
	g.st.queue = nil
	g.st.choice = nil
	winner := g.Winner()
	g.emit(rules.NewEvent(rules.EventGameOver, winner, "", ""))
	g.logger.Info("game over",
		zap.String("winner", winner),
		zap.Int("turn", g.st.turns.TurnNumber()),
	)
}
