package config

import (
	"encoding/json"
	"fmt"
)

// document is the on-disk shape written by init. Only set keys are emitted
// so the file stays as small as the original scaffold.
type document struct {
	Name     string    `json:"name"`
	Database string    `json:"database"`
	Store    *storeDoc `json:"store,omitempty"`
	LLM      llmDoc    `json:"llm"`
	Server   serverDoc `json:"server"`
}

type storeDoc struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

type llmDoc struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url,omitempty"`
}

type serverDoc struct {
	Port int `json:"port"`
}

func marshalDocument(cfg *ProjectConfig) ([]byte, error) {
	doc := document{
		Name:     cfg.Name,
		Database: cfg.Database,
		LLM:      llmDoc{Provider: cfg.LLM.Provider, Model: cfg.LLM.Model, BaseURL: cfg.LLM.BaseURL},
		Server:   serverDoc{Port: cfg.Server.Port},
	}
	if cfg.Store.Type != "" && cfg.Store.Type != DefaultStoreType || len(cfg.Store.Params) > 0 {
		doc.Store = &storeDoc{Type: cfg.Store.Type, Params: cfg.Store.Params}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append(data, '\n'), nil
}
