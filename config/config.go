// Package config 负责从 YAML 加载运行配置，并在引擎默认值之上做覆盖：
// 配置文件只写需要改的项，未写的项保持默认策略值。
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
)

// Config 是完整的运行配置。
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Engine    EngineConfig    `yaml:"engine"`
	Redis     RedisConfig     `yaml:"redis"`
	Milvus    MilvusConfig    `yaml:"milvus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Upstreams UpstreamsConfig `yaml:"upstreams"`
	Feast     FeastConfig     `yaml:"feast"`

	// FilterRules 候选过滤规则（CEL 表达式，表达保留条件）
	FilterRules []string `yaml:"filter_rules"`
}

type LogConfig struct {
	// Level debug/info/warn/error，默认 info
	Level string `yaml:"level"`
}

// EngineConfig 是引擎策略配置的 YAML 映射。
// 指针字段用于区分"未配置"和"配置为零值"。
type EngineConfig struct {
	MinBehaviorCount    *int     `yaml:"min_behavior_count"`
	LookbackDays        *int     `yaml:"lookback_days"`
	SimilarityFloor     *float64 `yaml:"similarity_floor"`
	VectorCacheTTL      *int     `yaml:"vector_cache_ttl"`
	BehaviorBlendWeight *float64 `yaml:"behavior_blend_weight"`
	InterestBlendWeight *float64 `yaml:"interest_blend_weight"`
	RecentKeywordLimit  *int     `yaml:"recent_keyword_limit"`
	CandidateMultiplier *int     `yaml:"candidate_multiplier"`
	SimilarHeadroom     *int     `yaml:"similar_headroom"`
	PortTimeoutSeconds  *int     `yaml:"port_timeout_seconds"`

	BehaviorWeights map[string]float64 `yaml:"behavior_weights"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MilvusConfig struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Ef         int    `yaml:"ef"`
	Timeout    int    `yaml:"timeout"`
}

type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type UpstreamsConfig struct {
	UserServiceURL    string `yaml:"user_service_url"`
	ProductServiceURL string `yaml:"product_service_url"`
}

type FeastConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	Project     string   `yaml:"project"`
	FeatureRefs []string `yaml:"feature_refs"`
}

// Load 从文件加载配置。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 配置内容。
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// EngineConfig 把 YAML 配置覆盖到默认策略值之上。
func (c *Config) EngineConfig() core.EngineConfig {
	out := core.DefaultEngineConfig()
	e := c.Engine

	if e.MinBehaviorCount != nil {
		out.MinBehaviorCount = *e.MinBehaviorCount
	}
	if e.LookbackDays != nil {
		out.LookbackDays = *e.LookbackDays
	}
	if e.SimilarityFloor != nil {
		out.SimilarityFloor = *e.SimilarityFloor
	}
	if e.VectorCacheTTL != nil {
		out.VectorCacheTTL = *e.VectorCacheTTL
	}
	if e.BehaviorBlendWeight != nil {
		out.BehaviorBlendWeight = *e.BehaviorBlendWeight
	}
	if e.InterestBlendWeight != nil {
		out.InterestBlendWeight = *e.InterestBlendWeight
	}
	if e.RecentKeywordLimit != nil {
		out.RecentKeywordLimit = *e.RecentKeywordLimit
	}
	if e.CandidateMultiplier != nil {
		out.CandidateMultiplier = *e.CandidateMultiplier
	}
	if e.SimilarHeadroom != nil {
		out.SimilarHeadroom = *e.SimilarHeadroom
	}
	if e.PortTimeoutSeconds != nil {
		out.PortTimeout = time.Duration(*e.PortTimeoutSeconds) * time.Second
	}
	for name, weight := range e.BehaviorWeights {
		out.BehaviorWeights[core.BehaviorType(name)] = weight
	}
	return out
}

// FilterNodes 把 filter_rules 编译成检索链路的规则过滤节点，
// 供 retrieval.Pipeline.ExtraNodes 挂载。规则为空时返回 nil。
func (c *Config) FilterNodes() ([]pipeline.Node, error) {
	if len(c.FilterRules) == 0 {
		return nil, nil
	}
	filters := make([]filter.Filter, 0, len(c.FilterRules))
	for _, expr := range c.FilterRules {
		f, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("compile filter rule %q: %w", expr, err)
		}
		filters = append(filters, f)
	}
	return []pipeline.Node{&filter.FilterNode{Filters: filters}}, nil
}

// NewLogger 按配置构建结构化日志器（JSON 输出到 stderr）。
func (c *Config) NewLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
