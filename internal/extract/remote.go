package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/ksa"
	"github.com/spigell/ksa-graph/internal/logger"
	"github.com/spigell/ksa-graph/internal/roledoc"
)

const (
	remoteSource = "remote"
	contentType  = "application/json"
)

// RemoteClient delegates candidate extraction to an external
// skill-extraction HTTP service. The service accepts the normalized text and
// returns scored skill surface forms, optionally already matched against the
// taxonomy.
type RemoteClient struct {
	url    string
	token  string
	logger *zap.Logger

	HTTPClient *http.Client
}

// remoteItem is the wire shape of one extracted skill.
type remoteItem struct {
	Skill      string  `mapstructure:"skill"`
	Confidence float64 `mapstructure:"confidence"`
	TaxonomyID string  `mapstructure:"taxonomy_id"`
	Evidence   string  `mapstructure:"evidence"`
}

// NewRemote builds a client for the skill-extraction service.
func NewRemote(url, token string, logger *zap.Logger) *RemoteClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteClient{
		url:    url,
		token:  token,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *RemoteClient) Name() string { return "remote" }

func (c *RemoteClient) Extract(ctx context.Context, doc *roledoc.Document) ([]ksa.ItemDraft, error) {
	payload, err := json.Marshal(map[string]string{"text": doc.Normalized})
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	c.logger.Debug("requesting skill extraction",
		zap.String("url", c.url),
		zap.Int("text_length", len(doc.Normalized)),
		zap.String("text_preview", logger.Truncate(doc.Normalized, 120)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("skill extraction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("skill extraction service: bad status: %s", resp.Status)
	}

	var body struct {
		Items []any `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	var decoded []remoteItem
	if err := mapstructure.WeakDecode(body.Items, &decoded); err != nil {
		return nil, fmt.Errorf("decode extraction items: %w", err)
	}

	items := make([]ksa.ItemDraft, 0, len(decoded))
	for _, item := range decoded {
		if item.Skill == "" {
			continue
		}
		items = append(items, ksa.ItemDraft{
			Text:       item.Skill,
			Type:       ksa.TypeSkill,
			Confidence: clampUnit(item.Confidence),
			Source:     remoteSource,
			TaxonomyID: item.TaxonomyID,
			Evidence:   item.Evidence,
		})
	}

	c.logger.Debug("skill extraction response", zap.Int("items", len(items)))

	return items, nil
}

func (c *RemoteClient) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
