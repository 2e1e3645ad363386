package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// OnlineFeatureStoreName is the fixed name of the online store connector.
const OnlineFeatureStoreName = "onlinefeaturestore"

// ErrNameRequired is returned by Get for an empty connector name.
var ErrNameRequired = errors.New("storage connector name is required")

// Requester is the part of the REST client the lookup needs.
type Requester interface {
	ProjectID() int64
	SendRequest(ctx context.Context, method string, pathParams []string, query url.Values, body []byte) ([]byte, error)
}

// API fetches storage connectors of one feature store.
type API struct {
	client         Requester
	featureStoreID int64
}

func NewAPI(client Requester, featureStoreID int64) *API {
	return &API{client: client, featureStoreID: featureStoreID}
}

// Get fetches the connector with the given name, including temporary
// credentials.
func (a *API) Get(ctx context.Context, name string) (*StorageConnector, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	query := url.Values{"temporaryCredentials": {"true"}}
	return a.fetch(ctx, name, query)
}

// GetOnlineConnector fetches the connector of the online feature store.
func (a *API) GetOnlineConnector(ctx context.Context) (*StorageConnector, error) {
	return a.fetch(ctx, OnlineFeatureStoreName, nil)
}

func (a *API) fetch(ctx context.Context, name string, query url.Values) (*StorageConnector, error) {
	body, err := a.client.SendRequest(ctx, http.MethodGet, a.pathParams(name), query, nil)
	if err != nil {
		return nil, err
	}
	sc, err := FromResponseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("storage connector %s: %w", name, err)
	}
	return sc, nil
}

func (a *API) pathParams(name string) []string {
	return []string{
		"project", strconv.FormatInt(a.client.ProjectID(), 10),
		"featurestores", strconv.FormatInt(a.featureStoreID, 10),
		"storageconnectors", name,
	}
}
