package scoring

import (
	"fmt"

	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/logging"
)

// Generator produces an argument for a debate round. Implementations are
// typically backed by an external reasoning service; the Contributor treats
// any failure as a signal to fall back, never as a fault.
type Generator interface {
	Generate(inv debate.Invitation, specialty string) (debate.Argument, error)
}

// Contributor implements the debate.Debater capability: it produces one
// argument per invitation (via its Generator, or a labeled fallback) and
// scores argument sets with the package rubric.
type Contributor struct {
	name      string
	specialty string
	gen       Generator
	logger    *logging.Logger
}

// NewContributor creates a Contributor. A nil generator means every
// contribution uses the fallback argument.
func NewContributor(name, specialty string, gen Generator, logger *logging.Logger) *Contributor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Contributor{
		name:      name,
		specialty: specialty,
		gen:       gen,
		logger:    logger.WithAgent(name),
	}
}

// ContributeArgument produces this participant's argument for the round.
// Generation failure degrades to a clearly labeled neutral placeholder; the
// error is logged, never propagated.
func (c *Contributor) ContributeArgument(inv debate.Invitation) (debate.Argument, error) {
	if c.gen != nil {
		arg, err := c.gen.Generate(inv, c.specialty)
		if err == nil {
			return arg, nil
		}
		c.logger.Warn("argument generation failed, using fallback", "debate_id", inv.DebateID, "err", err)
	}
	return c.fallbackArgument(inv), nil
}

// ScoreArguments rates the arguments with the rubric. Arguments that cannot
// be scored receive the neutral score.
func (c *Contributor) ScoreArguments(args []debate.Argument) map[string]float64 {
	scores := make(map[string]float64, len(args))
	for _, arg := range args {
		if arg.ID == "" {
			continue
		}
		scores[arg.ID] = Score(arg)
	}
	return scores
}

// fallbackArgument is the neutral placeholder used when no generator is
// available or generation fails.
func (c *Contributor) fallbackArgument(inv debate.Invitation) debate.Argument {
	return debate.NewArgument(
		debate.PositionNuanced,
		fmt.Sprintf("Fallback position from the %s perspective", c.specialty),
		fmt.Sprintf("No generated analysis was available for %q; this placeholder records the %s viewpoint based on standard practice.", inv.Topic, c.specialty),
		[]string{"professional experience", "standard practice"},
	)
}
