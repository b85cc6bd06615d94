package ranchapi

import (
	"net/http"

	"github.com/go-resty/resty/v2"
)

// RestyRoundTripper lets clients that expect an *http.Client, like the long-poll client, go through resty
// and its auth middleware.
type RestyRoundTripper struct {
	restyClient *resty.Client
}

func NewRestyRoundTripper(restyClient *resty.Client) *RestyRoundTripper {
	return &RestyRoundTripper{restyClient: restyClient}
}

func (r *RestyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	restyReq := r.restyClient.R().
		SetContext(req.Context()).
		SetDoNotParseResponse(true)

	for key, values := range req.Header {
		for _, value := range values {
			restyReq.Header.Add(key, value)
		}
	}

	restyReq.Method = req.Method
	restyReq.URL = req.URL.String()

	resp, err := restyReq.Send()
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:        resp.Status(),
		StatusCode:    resp.StatusCode(),
		Header:        resp.Header(),
		Body:          resp.RawBody(),
		ContentLength: resp.RawResponse.ContentLength,
		Request:       req,
	}, nil
}
