// Copyright 2015 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bigrquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Zsedo/bigrquery/internal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	// Scope is the Oauth2 scope for the service.
	// For relevant BigQuery scopes, see:
	// https://developers.google.com/identity/protocols/googlescopes#bigqueryv2
	Scope           = "https://www.googleapis.com/auth/bigquery"
	userAgentPrefix = "bigrquery"
)

var xGoogHeader = fmt.Sprintf("gl-go/%s gccl/%s", internal.GoVersion(), internal.Version)

func setClientHeader(headers http.Header) {
	headers.Set("x-goog-api-client", xGoogHeader)
}

// Client may be used to perform BigQuery operations.
type Client struct {
	projectID string
	service   service
}

// DetectProjectID is a sentinel value that instructs NewClient to detect the
// project ID. It is given in place of the projectID argument. NewClient will
// use the project ID from the default credentials
// (https://developers.google.com/accounts/docs/application-default-credentials).
const DetectProjectID = "*detect-project-id*"

// NewClient constructs a new Client which can perform BigQuery operations.
// Operations performed via the client are billed to the specified GCP
// project.
//
// If the project ID is set to DetectProjectID, NewClient will attempt to
// detect the project ID from the default credentials.
func NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*Client, error) {
	o := []option.ClientOption{
		option.WithScopes(Scope),
		option.WithUserAgent(fmt.Sprintf("%s/%s", userAgentPrefix, internal.Version)),
	}
	o = append(o, opts...)
	s, err := newRestService(ctx, o...)
	if err != nil {
		return nil, fmt.Errorf("bigrquery: constructing client: %w", err)
	}
	if projectID == DetectProjectID {
		projectID, err = detectProjectID(ctx)
		if err != nil {
			return nil, err
		}
	}
	if projectID == "" {
		return nil, errors.New("bigrquery: no project ID given")
	}
	return &Client{
		projectID: projectID,
		service:   s,
	}, nil
}

func detectProjectID(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, Scope)
	if err != nil {
		return "", fmt.Errorf("bigrquery: detecting project ID: %w", err)
	}
	if creds.ProjectID == "" {
		return "", errors.New("bigrquery: no project ID found in default credentials")
	}
	return creds.ProjectID, nil
}

// Project returns the project ID or number for this instance of the client,
// which may have either been explicitly specified or autodetected.
func (c *Client) Project() string {
	return c.projectID
}

// Close closes any resources held by the client.
// Close should be called when the client is no longer needed.
// It need not be called at program exit.
func (c *Client) Close() error {
	return nil
}
