package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Check names as they appear in Report.Results.
const (
	CheckSameName        = "find_same_name"
	CheckSimilarName     = "find_similar_name"
	CheckSimilarPronun   = "find_similar_pronun"
	CheckTokenize        = "tokenize"
	CheckAcceptability   = "check_elastic"
	CheckSimilarityScore = "similarity_score"
)

// CheckError is the body of a failed check.
type CheckError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Kind  string `json:"kind"`
}

// Report is one screening report. Each result is either the check's
// payload or a CheckError.
type Report struct {
	ID          string                     `json:"id"`
	UID         string                     `json:"uid,omitempty"`
	Name        string                     `json:"name"`
	ProductName string                     `json:"product_name"`
	CreatedAt   time.Time                  `json:"created_at"`
	Results     map[string]json.RawMessage `json:"results"`
}

// CheckFailure reports whether check failed and returns its error.
func CheckFailure(results map[string]json.RawMessage, check string) (*CheckError, bool) {
	raw, ok := results[check]
	if !ok {
		return nil, false
	}
	var ce CheckError
	if err := json.Unmarshal(raw, &ce); err != nil || ce.Code == "" {
		return nil, false
	}
	return &ce, true
}

// Decode unmarshals the payload of check into v.
func (r *Report) Decode(check string, v interface{}) error {
	raw, ok := r.Results[check]
	if !ok {
		return fmt.Errorf("report has no %q result", check)
	}
	if ce, failed := CheckFailure(r.Results, check); failed {
		return fmt.Errorf("check %s failed: %s (%s)", check, ce.Error, ce.Code)
	}
	return json.Unmarshal(raw, v)
}

// ScreenResult is the body of a synchronous screening.
type ScreenResult struct {
	Message string                     `json:"message"`
	Results map[string]json.RawMessage `json:"results"`
}

// Screen runs every check synchronously.
func (c *Client) Screen(ctx context.Context, name, productName string) (*ScreenResult, error) {
	body, err := jsonPayload(map[string]string{"name": name, "product_name": productName})
	if err != nil {
		return nil, err
	}
	var out ScreenResult
	if err := c.do(ctx, http.MethodPost, "/process_trademark", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRequest is an asynchronous submission. Image is optional.
type SubmitRequest struct {
	Name          string
	ProductName   string
	Image         io.Reader
	ImageFilename string
}

// Accepted acknowledges a submission.
type Accepted struct {
	Message  string `json:"message"`
	Status   string `json:"status"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Submit queues a candidate; its report arrives on Results.
func (c *Client) Submit(ctx context.Context, in SubmitRequest) (*Accepted, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", in.Name)
	if in.ProductName != "" {
		_ = mw.WriteField("product_name", in.ProductName)
	}
	if in.Image != nil {
		filename := in.ImageFilename
		if filename == "" {
			filename = "image"
		}
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := io.Copy(part, in.Image); err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	var out Accepted
	body := &payload{contentType: mw.FormDataContentType(), data: buf.Bytes()}
	if err := c.do(ctx, http.MethodPost, "/api/v1/trademarks/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Mine lists the requester's stored reports, newest first. An empty
// history returns an empty slice.
func (c *Client) Mine(ctx context.Context) ([]Report, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/trademarks/mine", nil, &raw); err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return []Report{}, nil
	}
	var reports []Report
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reports: %w", err)
	}
	return reports, nil
}

// Results streams the requester's finished reports to fn until ctx ends,
// the server closes the stream or fn returns an error. It does not retry.
func (c *Client) Results(ctx context.Context, fn func(Report) error) error {
	req, requestID, err := c.newRequest(ctx, http.MethodGet, "/api/v1/trademarks/results", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any client-wide timeout.
	hc := *c.httpClient
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return decodeAPIError(resp.StatusCode, requestID, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var r Report
			if err := json.Unmarshal([]byte(data.String()), &r); err != nil {
				c.logger.Errorf("skipping malformed event: %v", err)
			} else if err := fn(r); err != nil {
				return err
			}
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return scanner.Err()
}
