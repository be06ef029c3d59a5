package interview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/provider/embeddings"
)

// SeedBank loads the built-in question lists into bank, embedding each
// question so [BankEngine] retrieval can rank them against resumes. Seeding
// is idempotent: existing questions get their embeddings refreshed.
//
// A nil embedder seeds the questions without embeddings.
func SeedBank(ctx context.Context, bank store.QuestionBank, embedder embeddings.Provider) error {
	roles := []string{"backend", "frontend", "data", "general"}
	difficulties := []api.Difficulty{api.DifficultyEasy, api.DifficultyMedium, api.DifficultyHard}

	total := 0
	for _, role := range roles {
		for _, diff := range difficulties {
			questions := builtinBank(role, diff)

			var vectors [][]float32
			if embedder != nil {
				var err error
				vectors, err = embedder.EmbedBatch(ctx, questions)
				if err != nil {
					return fmt.Errorf("interview: embed bank questions: %w", err)
				}
			}

			for i, text := range questions {
				q := store.BankQuestion{Role: role, Difficulty: diff, Text: text}
				if vectors != nil {
					q.Embedding = vectors[i]
				}
				if err := bank.AddBankQuestion(ctx, q); err != nil {
					return fmt.Errorf("interview: seed question: %w", err)
				}
				total++
			}
		}
	}

	slog.Info("question bank seeded", "questions", total)
	return nil
}
