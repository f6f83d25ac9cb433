package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/finbot/core/logger"
)

type questionRow struct {
	Position    int    `db:"position"`
	Prompt      string `db:"prompt"`
	OptionA     string `db:"option_a"`
	OptionB     string `db:"option_b"`
	OptionC     string `db:"option_c"`
	OptionD     string `db:"option_d"`
	Answer      string `db:"answer"`
	Explanation string `db:"explanation"`
}

// Load reads the catalog from the quiz_questions, exchange_rates and financial_tips tables.
func Load(ctx context.Context, db *sqlx.DB) (*Catalog, error) {
	var qrows []questionRow
	if err := db.SelectContext(ctx, &qrows, `
		SELECT position, prompt, option_a, option_b, option_c, option_d, answer, explanation
		FROM quiz_questions ORDER BY position`); err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	questions := make([]Question, 0, len(qrows))
	for _, r := range qrows {
		questions = append(questions, Question{
			Prompt:      r.Prompt,
			Options:     []string{r.OptionA, r.OptionB, r.OptionC, r.OptionD},
			Answer:      r.Answer,
			Explanation: r.Explanation,
		})
	}

	var rates []Rate
	if err := db.SelectContext(ctx, &rates, `SELECT code, rate FROM exchange_rates ORDER BY position`); err != nil {
		return nil, fmt.Errorf("select rates: %w", err)
	}

	var tips []Tip
	if err := db.SelectContext(ctx, &tips, `SELECT title, content FROM financial_tips ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select tips: %w", err)
	}

	c, err := New(questions, rates, tips)
	if err != nil {
		return nil, err
	}
	logger.DB.Info("catalog loaded",
		slog.String("event", "catalog.load"),
		slog.Int("questions", len(questions)),
		slog.Int("rates", len(rates)),
		slog.Int("tips", len(tips)),
	)
	return c, nil
}

// Seed fills empty catalog tables from src in one transaction. Tables that
// already hold rows are left untouched.
func Seed(ctx context.Context, db *sqlx.DB, src *Catalog) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seeded := map[string]int{}

	if empty, err := tableEmpty(ctx, tx, "quiz_questions"); err != nil {
		return err
	} else if empty {
		for i, q := range src.questions {
			row := questionRow{
				Position: i + 1, Prompt: q.Prompt,
				OptionA: q.Options[0], OptionB: q.Options[1], OptionC: q.Options[2], OptionD: q.Options[3],
				Answer: q.Answer, Explanation: q.Explanation,
			}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO quiz_questions (position, prompt, option_a, option_b, option_c, option_d, answer, explanation)
				VALUES (:position, :prompt, :option_a, :option_b, :option_c, :option_d, :answer, :explanation)`, row); err != nil {
				return fmt.Errorf("insert question %d: %w", i+1, err)
			}
		}
		seeded["quiz_questions"] = len(src.questions)
	}

	if empty, err := tableEmpty(ctx, tx, "exchange_rates"); err != nil {
		return err
	} else if empty {
		for i, r := range src.rates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exchange_rates (position, code, rate) VALUES ($1, $2, $3)`,
				i+1, r.Code, r.Rate); err != nil {
				return fmt.Errorf("insert rate %s: %w", r.Code, err)
			}
		}
		seeded["exchange_rates"] = len(src.rates)
	}

	if empty, err := tableEmpty(ctx, tx, "financial_tips"); err != nil {
		return err
	} else if empty {
		for _, t := range src.tips {
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO financial_tips (title, content) VALUES (:title, :content)`, t); err != nil {
				return fmt.Errorf("insert tip %q: %w", t.Title, err)
			}
		}
		seeded["financial_tips"] = len(src.tips)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	status := "skip"
	if len(seeded) > 0 {
		status = "ok"
	}
	logger.SEED.Info("catalog seed",
		slog.String("event", "db.seed"),
		slog.String("status", status),
		slog.Int("questions", seeded["quiz_questions"]),
		slog.Int("rates", seeded["exchange_rates"]),
		slog.Int("tips", seeded["financial_tips"]),
	)
	return nil
}

func tableEmpty(ctx context.Context, tx *sqlx.Tx, table string) (bool, error) {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+table+`)`); err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return !exists, nil
}
