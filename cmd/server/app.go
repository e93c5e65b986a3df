package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Skufu/GoDiagnose/internal/hospital"
	"github.com/Skufu/GoDiagnose/internal/prediction"
	"github.com/Skufu/GoDiagnose/internal/resources"
	"github.com/Skufu/GoDiagnose/internal/symptoms"
)

// app is built once before the server starts and only read afterwards.
type app struct {
	policy      prediction.Policy
	res         *resources.Resources
	engine      *prediction.Engine
	recommender *hospital.Recommender
	logger      zerolog.Logger
}

func newApp(ctx context.Context, cfg *Config, pool *pgxpool.Pool, logger zerolog.Logger) (*app, error) {
	policy, err := prediction.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	res := resources.Load(cfg.resourcePaths(), cfg.classifierOptions(), logger)

	src := hospital.Source{Path: cfg.HospitalDataPath, Table: cfg.HospitalTable}
	if pool != nil {
		src.Pool = pool
	}
	dir := hospital.Open(ctx, src, logger)

	return &app{
		policy:      policy,
		res:         res,
		engine:      prediction.NewEngine(res, logger),
		recommender: hospital.NewRecommender(dir, logger),
		logger:      logger,
	}, nil
}

func (a *app) close() {
	if err := a.res.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("release classifier")
	}
}

// diagnose normalizes raw input, predicts, and attaches hospital recommendations.
func (a *app) diagnose(raw string, logger zerolog.Logger) (prediction.Result, error) {
	tokens := symptoms.Normalize(raw)
	logger.Info().Strs("symptoms", tokens).Msg("symptoms input")

	result, err := a.engine.Predict(tokens, a.policy)
	if err != nil {
		return result, fmt.Errorf("predict: %w", err)
	}
	result.Hospitals = a.recommendFor(result)

	logger.Info().
		Str("status", string(result.Status)).
		Str("disease", result.PredictedLabel).
		Str("probability", result.Confidence).
		Strs("unrecognized", result.Unrecognized).
		Int("hospitals", len(result.Hospitals)).
		Msg("prediction results")
	return result, nil
}

// recommendFor only looks up hospitals for confident, in-scope predictions.
func (a *app) recommendFor(result prediction.Result) []string {
	if result.Status != prediction.StatusSuccess || !a.policy.IsTarget(result.PredictedLabel) {
		return []string{}
	}
	return a.recommender.Recommend(result.PredictedLabel, a.policy.Recommendations)
}
