package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		v       any
		wantErr string
	}{
		{name: "status ok", v: UpdateStatusRequest{Status: "PUBLISHED"}},
		{name: "status unknown", v: UpdateStatusRequest{Status: "APPROVED"}, wantErr: `UpdateStatusRequest.Status: failed on "oneof"`},
		{name: "scrape ok", v: ScrapeRequest{URLs: []string{"https://www.facebook.com/events/1"}}},
		{name: "scrape empty", v: ScrapeRequest{}, wantErr: `"required"`},
		{name: "scrape bad url", v: ScrapeRequest{URLs: []string{"nope"}}, wantErr: `ScrapeRequest.URLs[0]: failed on "url"`},
		{name: "image ok", v: ProxyImageRequest{ImageURL: "https://scontent.xx.fbcdn.net/a.jpg"}},
		{name: "image ftp", v: ProxyImageRequest{ImageURL: "ftp://host/a.jpg"}, wantErr: `"http_url"`},
		{name: "login missing password", v: LoginRequest{Username: "admin"}, wantErr: `LoginRequest.Password`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.v)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
