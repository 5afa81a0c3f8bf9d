// Package client implements the upstream gateways over REST.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

// Clients bundles the three upstream gateways sharing one authenticated
// HTTP client.
type Clients struct {
	Prison             *PrisonAPI
	Incentives         *IncentivesAPI
	RestrictedPatients *RestrictedPatientsAPI
}

// New builds the gateways. When no client id is configured, requests are
// sent unauthenticated.
func New(ctx context.Context, cfg Config) *Clients {
	hc := http.DefaultClient
	if cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.tokenURL(),
		}
		hc = cc.Client(ctx)
	}
	return &Clients{
		Prison:             &PrisonAPI{client: newRestClient(hc, cfg.PrisonAPIURL, cfg)},
		Incentives:         &IncentivesAPI{client: newRestClient(hc, cfg.IncentivesAPIURL, cfg)},
		RestrictedPatients: &RestrictedPatientsAPI{client: newRestClient(hc, cfg.RestrictedPatientsAPIURL, cfg)},
	}
}

func newRestClient(hc *http.Client, baseURL string, cfg Config) *resty.Client {
	return resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
}

// StatusError is returned for unexpected upstream responses.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.Status, e.Body)
}

func statusError(resp *resty.Response) error {
	return &StatusError{
		Method: resp.Request.Method,
		URL:    resp.Request.URL,
		Status: resp.StatusCode(),
		Body:   resp.String(),
	}
}

// PrisonAPI is the source-of-truth gateway.
type PrisonAPI struct {
	client *resty.Client
}

var _ upstream.PrisonAPI = (*PrisonAPI)(nil)

func (p *PrisonAPI) GetBooking(ctx context.Context, prisonerNumber string) (*upstream.Booking, error) {
	var booking upstream.Booking
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("prisonerNumber", prisonerNumber).
		SetResult(&booking).
		Get("/api/prisoner-search/offenders/{prisonerNumber}")
	if err != nil {
		return nil, fmt.Errorf("failed to get booking for %s: %w", prisonerNumber, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, upstream.ErrNotFound
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return &booking, nil
}

type prisonerNumberPage struct {
	Content       []string `json:"content"`
	TotalElements int      `json:"totalElements"`
}

func (p *PrisonAPI) CountPrisonerNumbers(ctx context.Context) (int, error) {
	page, err := p.prisonerNumbers(ctx, 0, 1)
	if err != nil {
		return 0, err
	}
	return page.TotalElements, nil
}

func (p *PrisonAPI) GetPrisonerNumbers(ctx context.Context, page, pageSize int) ([]string, error) {
	result, err := p.prisonerNumbers(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return result.Content, nil
}

func (p *PrisonAPI) prisonerNumbers(ctx context.Context, page, pageSize int) (*prisonerNumberPage, error) {
	var result prisonerNumberPage
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(page),
			"size": strconv.Itoa(pageSize),
		}).
		SetResult(&result).
		Get("/api/prisoners/prisoner-numbers")
	if err != nil {
		return nil, fmt.Errorf("failed to list prisoner numbers: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return &result, nil
}

// IncentivesAPI returns current incentive levels.
type IncentivesAPI struct {
	client *resty.Client
}

var _ upstream.IncentivesAPI = (*IncentivesAPI)(nil)

func (i *IncentivesAPI) GetCurrentIncentive(ctx context.Context, bookingID int64) (*upstream.IncentiveLevel, error) {
	var level upstream.IncentiveLevel
	resp, err := i.client.R().
		SetContext(ctx).
		SetPathParam("bookingId", strconv.FormatInt(bookingID, 10)).
		SetQueryParam("with-details", "false").
		SetResult(&level).
		Get("/incentive-reviews/booking/{bookingId}")
	if err != nil {
		return nil, fmt.Errorf("failed to get incentive level for booking %d: %w", bookingID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return &level, nil
}

// RestrictedPatientsAPI returns restricted-patient records.
type RestrictedPatientsAPI struct {
	client *resty.Client
}

var _ upstream.RestrictedPatientsAPI = (*RestrictedPatientsAPI)(nil)

func (r *RestrictedPatientsAPI) GetRestrictedPatient(ctx context.Context, prisonerNumber string) (*upstream.RestrictedPatient, error) {
	var rp upstream.RestrictedPatient
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("prisonerNumber", prisonerNumber).
		SetResult(&rp).
		Get("/restricted-patient/prison-number/{prisonerNumber}")
	if err != nil {
		return nil, fmt.Errorf("failed to get restricted patient %s: %w", prisonerNumber, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return &rp, nil
}
