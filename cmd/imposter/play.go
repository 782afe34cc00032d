package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/playperu/imposter/internal/imposter"
)

var errQuit = errors.New("quit")

type console struct {
	in    *bufio.Scanner
	out   io.Writer
	blank int
}

func (c *console) prompt(ctx context.Context, format string, args ...any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(c.out, format, args...)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(c.in.Text())
	if line == "q" || line == "quit" {
		return "", errQuit
	}
	return line, nil
}

func (c *console) hide() {
	fmt.Fprint(c.out, strings.Repeat("\n", c.blank))
}

func playLocal(ctx context.Context, in io.Reader, out io.Writer, s imposter.Settings, cfg *localConfig) error {
	seed := cfg.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	table, pair, category, err := imposter.DealLocal(rng, s)
	if err != nil {
		return err
	}
	if cfg.shuffle {
		if err := table.Shuffle(rng); err != nil {
			return err
		}
	}

	c := &console{in: bufio.NewScanner(in), out: out, blank: cfg.clearLines}
	fmt.Fprintf(out, "%d players, %d imposter(s), category %s, %s mode. Type q to quit.\n",
		s.PlayerCount, s.ImposterCount, category, s.TurnMode)

	for !table.Ready() {
		number, err := nextCard(ctx, c, table)
		if err != nil {
			return quitOK(err)
		}
		if err := table.Reveal(number); err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		card := table.Cards[number-1]
		fmt.Fprintf(out, "\nCard %d: %s\n", card.Number, describe(card))
		if _, err := c.prompt(ctx, "Remember it, then press Enter to hide it. "); err != nil {
			return quitOK(err)
		}
		if err := table.Confirm(number); err != nil {
			return err
		}
		c.hide()
	}

	fmt.Fprintln(out, "Everyone has seen their card. Start describing!")
	if _, err := c.prompt(ctx, "Press Enter to reveal the words. "); err != nil {
		return quitOK(err)
	}
	fmt.Fprintf(out, "Civilians had %q, imposters had %q.\n", pair.Civilian, pair.Imposter)
	for _, card := range table.Cards {
		if card.Role == imposter.RoleImposter {
			fmt.Fprintf(out, "Card %d was an imposter.\n", card.Number)
		}
	}
	return nil
}

func nextCard(ctx context.Context, c *console, table *imposter.Table) (int, error) {
	if table.Mode == imposter.TurnSequential {
		n := table.CurrentTurnIndex() + 1
		_, err := c.prompt(ctx, "Pass the device to player %d and press Enter. ", n)
		return n, err
	}
	for {
		line, err := c.prompt(ctx, "Which card (1-%d)? ", len(table.Cards))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(c.out, "Enter a card number.")
			continue
		}
		return n, nil
	}
}

func describe(card imposter.Card) string {
	if card.Role == imposter.RoleImposter {
		return fmt.Sprintf("you are the IMPOSTER. Your word is %q.", card.Word)
	}
	return fmt.Sprintf("your word is %q.", card.Word)
}

func quitOK(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
