// Copyright (c) 2025, the kubechat authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// LLM provider names accepted in the config file.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config is the top-level application configuration, loaded from a YAML
// file with environment variable overrides applied on top.
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Auth     AuthConfig        `yaml:"auth"`
	LLM      LLMConfig         `yaml:"llm"`
	RAG      RAGConfig         `yaml:"rag"`
	Session  SessionConfig     `yaml:"session"`
	Kubectl  KubectlConfig     `yaml:"kubectl"`
	Clusters map[string]string `yaml:"clusters"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// AuthConfig holds the token signing settings. When Secret is empty an
// ephemeral secret is generated at startup, which invalidates all tokens
// on restart.
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// LLMConfig selects and configures the language model backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`

	APIKey string `yaml:"api_key"`

	EmbeddingModel string `yaml:"embedding_model"`
}

// RAGConfig configures the retrieval index over the local knowledge base.
type RAGConfig struct {
	// DataDir holds the *.txt documents to index. Retrieval is disabled
	// when empty.
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
	TopK    int    `yaml:"top_k"`
}

// SessionConfig configures the conversation context store.
type SessionConfig struct {
	DBPath string `yaml:"db_path"`
}

// KubectlConfig configures the execution gateway.
type KubectlConfig struct {
	// Path is the kubectl executable, resolved through PATH when not
	// absolute.
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		LLM: LLMConfig{
			Provider:    ProviderOllama,
			BaseURL:     "http://localhost:11434",
			Model:       "mistral:instruct",
			Temperature: 0.1,
		},
		RAG: RAGConfig{
			DBPath: "kubechat-rag.db",
			TopK:   3,
		},
		Session: SessionConfig{
			DBPath: "kubechat-sessions.db",
		},
		Kubectl: KubectlConfig{
			Path: "kubectl",
		},
	}
}

// LoadConfig reads the YAML config at path, falling back to defaults when
// path is empty or the file does not exist, then applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
			slog.Warn("config file not found, using defaults", "path", path)
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values. The names
// match what the container entrypoint historically exported.
func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("CHATBOT_KUBECTL_PATH"); v != "" {
		c.Kubectl.Path = v
	}
	if v := os.Getenv("CHATBOT_KUBECONFIG_PATH"); v != "" {
		if c.Clusters == nil {
			c.Clusters = map[string]string{}
		}
		c.Clusters["default"] = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("KUBECHAT_DATA_DIR"); v != "" {
		c.RAG.DataDir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderOllama:
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required for provider %q", ProviderOllama)
		}
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key (or GEMINI_API_KEY) is required for provider %q", ProviderGemini)
		}
	default:
		return fmt.Errorf("unknown llm.provider %q (supported: %s, %s)",
			c.LLM.Provider, ProviderOllama, ProviderGemini)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.RAG.TopK < 1 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	return nil
}

// authSecret returns the configured token secret, generating an ephemeral
// one when unset. Tokens signed with a generated secret do not survive a
// restart.
func (c *Config) authSecret() (string, error) {
	if c.Auth.Secret != "" {
		return c.Auth.Secret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating ephemeral auth secret: %w", err)
	}
	slog.Warn("no auth secret configured, generated an ephemeral one; tokens will not survive restarts")
	return hex.EncodeToString(buf), nil
}
