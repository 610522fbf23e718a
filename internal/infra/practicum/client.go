// internal/infra/practicum/client.go
package practicum

import (
	"context"
	"encoding/json"
	"fmt"
	"homework_status_bot/internal/domain/homework"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client implements homework.StatusSource over the homework review API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(endpoint, token string, timeout time.Duration, logger *logrus.Entry) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchStatuses issues one GET with from_date=fromDate and returns the decoded body.
func (c *Client) FetchStatuses(ctx context.Context, fromDate int64) (any, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &homework.APIRequestError{Err: fmt.Errorf("invalid endpoint: %w", err)}
	}
	q := reqURL.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &homework.APIRequestError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	logCtx := c.logger.WithField("from_date", fromDate)
	logCtx.Debug("Requesting homework statuses")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logCtx.WithError(err).Error("Error within request to API")
		return nil, &homework.APIRequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &homework.APIRequestError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &homework.APIStatusError{StatusCode: resp.StatusCode, Message: apiMessage(body)}
		logCtx.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"api_message": statusErr.Message,
		}).Warn("API responded with non-2xx status")
		return nil, statusErr
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &homework.APIRequestError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return payload, nil
}

// apiMessage extracts the optional "message" field of an error body.
// Anything that is not an object with a string message yields "".
func apiMessage(body []byte) string {
	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		return ""
	}
	msg, _ := record["message"].(string)
	return msg
}
