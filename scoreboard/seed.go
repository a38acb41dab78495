package scoreboard

import (
	"context"
	"fmt"

	"scorekeeper/core"
	"scorekeeper/engine"
)

// DemoScores is the sample classroom shown on a fresh install, best first.
func DemoScores() []core.Submission {
	return []core.Submission{
		{PlayerName: "João", PlayerAge: "10 anos", PlayerSchool: "Escola Municipal", Score: core.Int64(150), Level: 5},
		{PlayerName: "Maria", PlayerAge: "9 anos", PlayerSchool: "Colégio Estadual", Score: core.Int64(120), Level: 4},
		{PlayerName: "Pedro", PlayerAge: "8 anos", PlayerSchool: "Escola Particular", Score: core.Int64(100), Level: 4},
		{PlayerName: "Ana", PlayerAge: "10 anos", PlayerSchool: "Escola Municipal", Score: core.Int64(90), Level: 3},
		{PlayerName: "Lucas", PlayerAge: "9 anos", PlayerSchool: "Colégio Estadual", Score: core.Int64(80), Level: 3},
		{PlayerName: "Carla", PlayerAge: "8 anos", PlayerSchool: "Escola Particular", Score: core.Int64(70), Level: 2},
		{PlayerName: "Paulo", PlayerAge: "7 anos", PlayerSchool: "Escola Municipal", Score: core.Int64(60), Level: 2},
		{PlayerName: "Julia", PlayerAge: "8 anos", PlayerSchool: "Colégio Estadual", Score: core.Int64(50), Level: 2},
		{PlayerName: "Marcos", PlayerAge: "10 anos", PlayerSchool: "Escola Particular", Score: core.Int64(40), Level: 1},
		{PlayerName: "Fernanda", PlayerAge: "9 anos", PlayerSchool: "Escola Municipal", Score: core.Int64(30), Level: 1},
	}
}

// SeedIfEmpty submits the demo scores when the store holds nothing and
// reports how many were added.
func SeedIfEmpty(ctx context.Context, svc *engine.ScoreService) (int, error) {
	n, err := svc.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	demo := DemoScores()
	for i, sub := range demo {
		if _, err := svc.Submit(ctx, sub); err != nil {
			return i, fmt.Errorf("seed %s: %w", sub.PlayerName, err)
		}
	}
	return len(demo), nil
}
