package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/ports"
	"aidigest/internal/source"
)

const defaultHFModelsURL = "https://huggingface.co/api/models?limit=10&sort=downloads&direction=-1"

// HuggingFaceAdapter lists the currently most-downloaded models from the
// Hub API.
type HuggingFaceAdapter struct {
	name   string
	url    string
	client *http.Client
}

var _ ports.SourceAdapter = (*HuggingFaceAdapter)(nil)

// NewHuggingFaceFactory returns the builder factory for kind "huggingface".
func NewHuggingFaceFactory() source.Factory {
	return func(cfg config.SourceConfig, deps source.FactoryDeps) (ports.SourceAdapter, error) {
		url := defaultHFModelsURL
		if len(cfg.URLs) > 0 {
			url = cfg.URLs[0]
		}
		return &HuggingFaceAdapter{
			name:   cfg.Name,
			url:    url,
			client: defaultClient(deps.Client),
		}, nil
	}
}

// Name identifies the adapter inside the coordinator's report.
func (a *HuggingFaceAdapter) Name() string { return a.name }

type hfModel struct {
	ID           string    `json:"id"`
	PipelineTag  string    `json:"pipeline_tag"`
	Downloads    int       `json:"downloads"`
	Likes        int       `json:"likes"`
	LastModified time.Time `json:"lastModified"`
}

// Fetch returns one RawItem per listed model.
func (a *HuggingFaceAdapter) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	var models []hfModel
	if err := getJSON(ctx, a.client, a.url, &models); err != nil {
		return nil, err
	}

	items := make([]domain.RawItem, 0, len(models))
	for _, m := range models {
		if m.ID == "" {
			continue
		}
		items = append(items, domain.RawItem{
			Title:       m.ID,
			URL:         "https://huggingface.co/" + m.ID,
			Summary:     fmt.Sprintf("%s model, %d downloads, %d likes", orUnknown(m.PipelineTag), m.Downloads, m.Likes),
			PublishedAt: m.LastModified,
			Extra: map[string]string{
				"pipeline_tag": m.PipelineTag,
				"downloads":    fmt.Sprintf("%d", m.Downloads),
			},
		})
	}
	return items, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
