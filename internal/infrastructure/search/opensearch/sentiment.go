package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// SentimentClassifier calls a text-classification model deployed on the
// search cluster's inference endpoint.
type SentimentClassifier struct {
	client *Client
	path   string
}

// NewSentimentClassifier resolves the inference path for the configured model.
func NewSentimentClassifier(c *Client, cfg config.OpenSearchConfig) *SentimentClassifier {
	return &SentimentClassifier{client: c, path: fmt.Sprintf(cfg.SentimentPath, cfg.SentimentModelID)}
}

type inferRequest struct {
	Docs            []inferDoc  `json:"docs"`
	InferenceConfig inferConfig `json:"inference_config"`
}

type inferDoc struct {
	TextField string `json:"text_field"`
}

type inferConfig struct {
	TextClassification struct {
		NumTopClasses int `json:"num_top_classes"`
	} `json:"text_classification"`
}

type inferResponse struct {
	TopClasses       []trademark.ClassScore `json:"top_classes"`
	InferenceResults []struct {
		TopClasses []trademark.ClassScore `json:"top_classes"`
	} `json:"inference_results"`
}

// Classify implements trademark.SentimentClassifier.
func (s *SentimentClassifier) Classify(ctx context.Context, text string, topK int) ([]trademark.ClassScore, error) {
	body := inferRequest{Docs: []inferDoc{{TextField: text}}}
	body.InferenceConfig.TextClassification.NumTopClasses = topK
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal inference request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.path, bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build inference request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.GetClient().Perform(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.ErrCodeCollaboratorTimeout, "sentiment classifier timed out")
		}
		return nil, errors.Unavailable("sentiment classifier", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Unavailable("sentiment classifier",
			errors.New(errors.ErrCodeExternalService, fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))))
	}

	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode inference response")
	}
	if len(out.TopClasses) == 0 && len(out.InferenceResults) > 0 {
		out.TopClasses = out.InferenceResults[0].TopClasses
	}
	if len(out.TopClasses) == 0 {
		return nil, errors.New(errors.ErrCodeCheckComputation, "inference response carries no classes")
	}
	return out.TopClasses, nil
}
