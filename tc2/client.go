// Package tc2 sends Total Connect operations to the TC2 web service using its
// HTTP POST binding: arguments go form encoded to <base>/<operation> and the
// reply is an XML document.
package tc2

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/sync/cio"
	"github.com/charmbracelet/log"
	totalconnect "github.com/craigjmidwinter/total-connect-client"
)

const DefaultBaseURL = "https://rs.alarmnet.com/TC21API/TC2.asmx"

const timeout = 15 * time.Second

type HTTPStatusError struct {
	Op     string
	Status int
	Body   string
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("tc2 %s: http %d: %s", e.Op, e.Status, strings.TrimSpace(e.Body))
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func New(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

func (c *Client) Send(
	ctx context.Context,
	op totalconnect.Operation,
	args totalconnect.Args,
	reply totalconnect.Response,
) error {
	log.Debug("tc2 send", "op", op.Name())
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/"+op.Name(),
		strings.NewReader(args.Encode()),
	)
	if err != nil {
		return fmt.Errorf("could not create %s request: %w", op.Name(), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send %s: %w", op.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(cio.TimeoutReader(resp.Body, c.timeout))
	if err != nil {
		return fmt.Errorf("could not read %s reply: %w", op.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return HTTPStatusError{Op: op.Name(), Status: resp.StatusCode, Body: string(body)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: %s: empty body", totalconnect.ErrMalformedReply, op.Name())
	}
	if err := xml.Unmarshal(body, reply); err != nil {
		return fmt.Errorf("%w: %s: %w", totalconnect.ErrMalformedReply, op.Name(), err)
	}
	return nil
}
