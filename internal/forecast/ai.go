package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// maxDeviation bounds how far a model answer may move from the current price.
const maxDeviation = 0.15

const systemPrompt = `You forecast Philippine retail agricultural commodity prices.
Answer with one JSON object only:
{"next_week": number, "next_month": number, "trend": "up"|"down"|"stable", "confidence": 0-100, "factors": [string]}`

var errMalformed = errors.New("forecast: malformed model answer")

// AIOption configures an AIForecaster.
type AIOption func(*aiSettings)

type aiSettings struct {
	httpClient *http.Client
	maxRetries int
}

// WithHTTPClient routes model calls through c.
func WithHTTPClient(c *http.Client) AIOption {
	return func(s *aiSettings) { s.httpClient = c }
}

// WithMaxRetries sets how often a failed model call is retried by the SDK.
func WithMaxRetries(n int) AIOption {
	return func(s *aiSettings) { s.maxRetries = n }
}

// AIForecaster asks a chat-completion model for a forecast and falls back to
// the seasonal engine whenever the call or its answer is unusable.
type AIForecaster struct {
	client   *openai.Client
	model    string
	fallback *Engine
}

// NewAI creates a model-backed forecaster.
func NewAI(cfg config.AIConfig, fallback *Engine, opts ...AIOption) *AIForecaster {
	settings := aiSettings{maxRetries: 1}
	for _, opt := range opts {
		opt(&settings)
	}
	if fallback == nil {
		fallback = NewEngine(nil)
	}

	oaOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(settings.maxRetries),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oaOpts = append(oaOpts, option.WithBaseURL(base))
	}
	if cfg.TimeoutSec > 0 {
		oaOpts = append(oaOpts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSec)*time.Second))
	}
	if settings.httpClient != nil {
		oaOpts = append(oaOpts, option.WithHTTPClient(settings.httpClient))
	}
	client := openai.NewClient(oaOpts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &AIForecaster{client: &client, model: model, fallback: fallback}
}

// Forecast implements Forecaster. Contract errors are returned as-is; model
// failures are logged and answered by the seasonal engine.
func (f *AIForecaster) Forecast(ctx context.Context, name string, price float64) (models.ForecastRecord, error) {
	if err := validate(name, price); err != nil {
		return models.ForecastRecord{}, err
	}
	rec, err := f.ask(ctx, name, price)
	if err != nil {
		logx.WithContext(ctx).Errorf("forecast: model forecast failed, using seasonal engine commodity=%s err=%v", name, err)
		return f.fallback.Forecast(ctx, name, price)
	}
	return rec, nil
}

func (f *AIForecaster) ask(ctx context.Context, name string, price float64) (models.ForecastRecord, error) {
	jsonObject := shared.NewResponseFormatJSONObjectParam()
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(f.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf("Commodity: %s\nCurrent price: %.2f PHP\nDate: %s",
				name, price, utils.DateString(utils.NowPHT()))),
		},
		Temperature:    openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &jsonObject},
	}
	resp, err := f.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return models.ForecastRecord{}, err
	}
	if len(resp.Choices) == 0 {
		return models.ForecastRecord{}, fmt.Errorf("%w: no choices", errMalformed)
	}
	return parseAnswer(name, price, resp.Choices[0].Message.Content)
}

type answer struct {
	NextWeek   *float64 `json:"next_week"`
	NextMonth  *float64 `json:"next_month"`
	Trend      string   `json:"trend"`
	Confidence *float64 `json:"confidence"`
	Factors    []string `json:"factors"`
}

// parseAnswer extracts the first JSON object from content and clamps it.
func parseAnswer(name string, price float64, content string) (models.ForecastRecord, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return models.ForecastRecord{}, fmt.Errorf("%w: no JSON object", errMalformed)
	}
	var a answer
	if err := json.Unmarshal([]byte(content[start:end+1]), &a); err != nil {
		return models.ForecastRecord{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if a.NextWeek == nil || a.NextMonth == nil || a.Confidence == nil {
		return models.ForecastRecord{}, fmt.Errorf("%w: missing fields", errMalformed)
	}
	if !finite(*a.NextWeek) || !finite(*a.NextMonth) || !finite(*a.Confidence) {
		return models.ForecastRecord{}, fmt.Errorf("%w: non-finite number", errMalformed)
	}

	trend := models.Trend(strings.ToLower(strings.TrimSpace(a.Trend)))
	switch trend {
	case models.TrendUp, models.TrendDown, models.TrendStable:
	default:
		return models.ForecastRecord{}, fmt.Errorf("%w: trend %q", errMalformed, a.Trend)
	}

	factors := make([]string, 0, len(a.Factors))
	for _, fct := range a.Factors {
		if fct = strings.TrimSpace(fct); fct != "" {
			factors = append(factors, fct)
		}
	}

	return models.ForecastRecord{
		CommodityName: name,
		NextWeek:      utils.Round2(clampAround(*a.NextWeek, price)),
		NextMonth:     utils.Round2(clampAround(*a.NextMonth, price)),
		Trend:         trend,
		Confidence:    int(math.Round(math.Max(0, math.Min(100, *a.Confidence)))),
		Factors:       factors,
	}, nil
}

func clampAround(v, price float64) float64 {
	lo, hi := price*(1-maxDeviation), price*(1+maxDeviation)
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
