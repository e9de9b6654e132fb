package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/ledger-rules/internal/logging"

	"gopkg.in/yaml.v3"
)

// Store loads the human-editable rule and category files. A rule set is
// loaded once per engine instantiation; callers construct a new engine to
// pick up edits.
type Store struct {
	RulesFile      string
	CategoriesFile string
	logger         logging.Logger
}

// NewStore creates a store for the given rule and category file paths.
func NewStore(rulesFile, categoriesFile string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Store{
		RulesFile:      rulesFile,
		CategoriesFile: categoriesFile,
		logger:         logger,
	}
}

// FindConfigFile looks for a configuration file in standard locations.
func (s *Store) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,                          // Current directory
		filepath.Join("config", filename), // ./config/ directory
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	// Fall back to the user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "ledger-rules", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// LoadRuleSet loads and validates the rule file. Unlike category lists, a
// missing or malformed rule file is a configuration error: the engine must
// not run against a partially valid rule set.
func (s *Store) LoadRuleSet() (*RuleSet, error) {
	filename := s.RulesFile
	if filename == "" {
		filename = "rules.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		return nil, fmt.Errorf("rules file not found: %s", filename)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}

	ruleSet, err := ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", filePath, err)
	}

	s.logger.Debug("Loaded rule set",
		logging.Field{Key: "file", Value: filePath},
		logging.Field{Key: "category_rules", Value: len(ruleSet.CategoryRules)},
		logging.Field{Key: "label_rules", Value: len(ruleSet.LabelRules)})

	return ruleSet, nil
}

// ParseRuleSet unmarshals and validates a YAML rule document. The sign
// handling flag on amount predicates is fixed here: category rule predicates
// compare absolute amounts, label rule predicates compare signed amounts.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(data, &ruleSet); err != nil {
		return nil, fmt.Errorf("error parsing rules: %w", err)
	}

	for i := range ruleSet.CategoryRules {
		if ruleSet.CategoryRules[i].Amount != nil {
			ruleSet.CategoryRules[i].Amount.Absolute = true
		}
	}
	for i := range ruleSet.LabelRules {
		if ruleSet.LabelRules[i].WhenAmount != nil {
			ruleSet.LabelRules[i].WhenAmount.Absolute = false
		}
	}

	if err := ruleSet.Validate(); err != nil {
		return nil, err
	}

	return &ruleSet, nil
}

// categoriesConfig is the YAML shape of the category list file.
type categoriesConfig struct {
	Categories []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description,omitempty"`
	} `yaml:"categories"`
}

// LoadCategories loads the list of available category names. The list feeds
// the classification prompt; a missing file is not an error, the classifier
// simply receives no candidates.
func (s *Store) LoadCategories() ([]string, error) {
	filename := s.CategoriesFile
	if filename == "" {
		filename = "categories.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) || err == os.ErrNotExist {
			s.logger.Warn("Categories file not found", logging.Field{Key: "file", Value: filename})
			return []string{}, nil
		}
		return nil, fmt.Errorf("error resolving categories file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	var config categoriesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}

	names := make([]string, 0, len(config.Categories))
	for _, c := range config.Categories {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}

	s.logger.Debug("Loaded categories",
		logging.Field{Key: "file", Value: filePath},
		logging.Field{Key: "count", Value: len(names)})

	return names, nil
}
