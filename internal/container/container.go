// Package container provides dependency injection for the ledger-rules
// application. It centralizes the creation and wiring of all components,
// making them explicit and testable; nothing in the engine packages touches
// process-wide state.
package container

import (
	"context"
	"fmt"

	"fjacquet/ledger-rules/internal/ai"
	"fjacquet/ledger-rules/internal/batch"
	"fjacquet/ledger-rules/internal/config"
	"fjacquet/ledger-rules/internal/engine"
	"fjacquet/ledger-rules/internal/intelligence"
	"fjacquet/ledger-rules/internal/logging"
	"fjacquet/ledger-rules/internal/rules"
)

// Container holds all application dependencies. It is immutable after
// creation; fields are private and reachable only through getters.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	store      *rules.Store
	engine     *engine.Engine
	gate       *intelligence.Gate
	processor  *batch.Processor
	categories []string
	gemini     *ai.GeminiClient
}

// NewContainer creates and wires all application dependencies. The apply
// capability may be nil when the container is only used for dry runs.
func NewContainer(ctx context.Context, cfg *config.Config, apply batch.ApplyFunc) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	store := rules.NewStore(cfg.Rules.File, cfg.Rules.CategoriesFile, logger)

	// A bad rule file is fatal to the whole load; the engine must not run
	// against a partially valid rule set.
	ruleSet, err := store.LoadRuleSet()
	if err != nil {
		return nil, err
	}

	categories, err := store.LoadCategories()
	if err != nil {
		return nil, err
	}

	mode, err := intelligence.ParseMode(cfg.Intelligence.Mode)
	if err != nil {
		return nil, err
	}

	var classifier intelligence.Classifier
	var gemini *ai.GeminiClient
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		gemini, err = ai.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			return nil, err
		}
		classifier = ai.NewAdapter(gemini, logger)
		logger.Info("AI classification enabled",
			logging.Field{Key: "model", Value: cfg.AI.Model})
	} else {
		logger.Info("AI classification disabled")
	}

	eng := engine.New(ruleSet, logger)
	gate := intelligence.NewGate(mode, classifier, categories, logger)
	processor := batch.NewProcessor(eng, gate, apply, logger)

	logger.Info("Container initialized",
		logging.Field{Key: "category_rules", Value: len(ruleSet.CategoryRules)},
		logging.Field{Key: "label_rules", Value: len(ruleSet.LabelRules)},
		logging.Field{Key: "intelligence_mode", Value: string(mode)})

	return &Container{
		logger:     logger,
		config:     cfg,
		store:      store,
		engine:     eng,
		gate:       gate,
		processor:  processor,
		categories: categories,
		gemini:     gemini,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetEngine returns the rule engine.
func (c *Container) GetEngine() *engine.Engine {
	return c.engine
}

// GetGate returns the confidence gate.
func (c *Container) GetGate() *intelligence.Gate {
	return c.gate
}

// GetProcessor returns the batch processor.
func (c *Container) GetProcessor() *batch.Processor {
	return c.processor
}

// GetCategories returns the available category names.
func (c *Container) GetCategories() []string {
	return c.categories
}

// Close releases external resources held by the container.
func (c *Container) Close() error {
	if c.gemini != nil {
		return c.gemini.Close()
	}
	return nil
}
