// pkg/sources/mailchimp.go
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// mailchimpPageSize is the members-per-request page size.
const mailchimpPageSize = 1000

// ErrInvalidAPIKey is returned when the key carries no datacenter
// suffix (the part after the last dash).
var ErrInvalidAPIKey = errors.New("mailing list API key has no datacenter suffix")

// mailchimpHeaders is the fixed header set of datasets produced by
// this source.
var mailchimpHeaders = []string{"First Name", "Last Name", "Email Address", "Phone Number", "Status"}

type memberPage struct {
	Members []struct {
		EmailAddress string                 `json:"email_address"`
		Status       string                 `json:"status"`
		MergeFields  map[string]interface{} `json:"merge_fields"`
	} `json:"members"`
	TotalItems int `json:"total_items"`
}

// mergeField reads a merge field as text. Non-string fields (the API
// sends addresses as objects) are ignored.
func mergeField(fields map[string]interface{}, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

// MailchimpSource pulls list members from a Mailchimp-compatible
// marketing API and exposes them as a tabular dataset.
type MailchimpSource struct {
	apiKey  string
	listID  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewMailchimpSource creates an API source. The datacenter is taken
// from the key suffix, as the service encodes it.
func NewMailchimpSource(apiKey, listID string, logger *zap.Logger) (*MailchimpSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := strings.LastIndex(apiKey, "-")
	if idx < 0 || idx == len(apiKey)-1 {
		return nil, ErrInvalidAPIKey
	}
	dc := apiKey[idx+1:]
	return &MailchimpSource{
		apiKey:  apiKey,
		listID:  listID,
		baseURL: fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}, nil
}

// WithBaseURL points the client at a different API host. Used by
// tests.
func (s *MailchimpSource) WithBaseURL(base string) *MailchimpSource {
	s.baseURL = strings.TrimRight(base, "/")
	return s
}

// Name identifies the source as the list it reads.
func (s *MailchimpSource) Name() string {
	return "mailchimp:" + s.listID
}

// Fetch pages through the list's members and maps each to a contact
// record. Merge fields FNAME, LNAME and PHONE become the name and
// phone columns.
func (s *MailchimpSource) Fetch(ctx context.Context) (*model.Dataset, error) {
	ds := model.NewDataset(s.Name(), mailchimpHeaders)

	offset := 0
	for {
		page, err := s.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, m := range page.Members {
			rec := model.NewRecord(ds.Len() + 2)
			rec.Set("First Name", mergeField(m.MergeFields, "FNAME"))
			rec.Set("Last Name", mergeField(m.MergeFields, "LNAME"))
			rec.Set("Email Address", m.EmailAddress)
			rec.Set("Phone Number", mergeField(m.MergeFields, "PHONE"))
			rec.Set("Status", m.Status)
			ds.Append(rec)
		}

		offset += len(page.Members)
		if len(page.Members) == 0 || offset >= page.TotalItems {
			break
		}
	}

	s.logger.Info("fetched mailing list members",
		zap.String("list", s.listID),
		zap.Int("records", ds.Len()))
	return ds, nil
}

func (s *MailchimpSource) fetchPage(ctx context.Context, offset int) (*memberPage, error) {
	q := url.Values{}
	q.Set("count", fmt.Sprintf("%d", mailchimpPageSize))
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("fields", "members.email_address,members.status,members.merge_fields,total_items")

	endpoint := fmt.Sprintf("%s/lists/%s/members?%s", s.baseURL, s.listID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building members request: %w", err)
	}
	req.SetBasicAuth("anystring", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching list members: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list members request failed with status %d", resp.StatusCode)
	}

	var page memberPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding members response: %w", err)
	}
	return &page, nil
}
