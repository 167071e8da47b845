// Package fake serves an in-memory resource set through the arm service
// interfaces. The default set has two healthy subscriptions, "tanuki-id"
// and "nekomata-id", and one, "badsub", whose scoped lists always fail.
package fake

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formflow/pkg/arm"
)

// ErrNetwork is returned for every scoped list of the "badsub" subscription.
var ErrNetwork = errors.New("Fake network error")

const (
	Tanuki   = "tanuki-id"
	Nekomata = "nekomata-id"
	BadSub   = "badsub"
)

// Option customises Services.
type Option func(*Services)

// WithDelay makes every call take at least d, or until its context ends.
func WithDelay(d time.Duration) Option {
	return func(s *Services) {
		s.delay = d
	}
}

// Services implements arm.Services. It records every call it receives.
type Services struct {
	mu            sync.Mutex
	delay         time.Duration
	subscriptions []arm.Subscription
	storage       map[string][]arm.StorageAccount
	groups        map[string][]arm.ResourceGroup
	locations     map[string][]arm.Location
	failures      map[string]error
	calls         map[string][]string
}

var _ arm.Services = (*Services)(nil)

// New returns the default fake set.
func New(opts ...Option) *Services {
	s := &Services{
		subscriptions: []arm.Subscription{
			{ID: "/subscriptions/" + Tanuki, SubscriptionID: Tanuki, DisplayName: "tanuki", State: "Enabled"},
			{ID: "/subscriptions/" + Nekomata, SubscriptionID: Nekomata, DisplayName: "nekomata", State: "Enabled"},
			{ID: "/subscriptions/" + BadSub, SubscriptionID: BadSub, DisplayName: "Bad Subscription", State: "PastDue"},
		},
		storage: map[string][]arm.StorageAccount{
			Tanuki: {
				storageAccount(Tanuki, "supercomputing", "storageB", "eastus"),
				storageAccount(Tanuki, "supercomputing", "storageA", "eastus"),
				storageAccount(Tanuki, "visualization", "storageC", "southcentralus"),
			},
			Nekomata: {
				storageAccount(Nekomata, "production", "storageE", "westus"),
				storageAccount(Nekomata, "staging", "storageD", "southcentralus"),
			},
		},
		groups: map[string][]arm.ResourceGroup{
			Tanuki: {
				resourceGroup(Tanuki, "supercomputing", "eastus"),
				resourceGroup(Tanuki, "visualization", "southcentralus"),
			},
			Nekomata: {
				resourceGroup(Nekomata, "test", "southcentralus"),
				resourceGroup(Nekomata, "staging", "southcentralus"),
				resourceGroup(Nekomata, "production", "westus"),
			},
		},
		locations: map[string][]arm.Location{
			Tanuki: {
				location(Tanuki, "eastus", "East US"),
				location(Tanuki, "southcentralus", "South Central US"),
			},
			Nekomata: {
				location(Nekomata, "eastus", "East US"),
				location(Nekomata, "westus", "West US"),
				location(Nekomata, "southcentralus", "South Central US"),
			},
		},
		failures: map[string]error{BadSub: ErrNetwork},
		calls:    make(map[string][]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func storageAccount(sub, group, name, region string) arm.StorageAccount {
	return arm.StorageAccount{
		ID:       "/subscriptions/" + sub + "/resourceGroups/" + group + "/providers/Microsoft.Storage/storageAccounts/" + name,
		Name:     name,
		Location: region,
		Kind:     "Storage",
		SKU:      "Standard_GRS",
	}
}

func resourceGroup(sub, name, region string) arm.ResourceGroup {
	return arm.ResourceGroup{
		ID:       "/subscriptions/" + sub + "/resourceGroups/" + name,
		Name:     name,
		Location: region,
	}
}

func location(sub, name, display string) arm.Location {
	return arm.Location{
		ID:                  "/subscriptions/" + sub + "/locations/" + name,
		Name:                name,
		DisplayName:         display,
		RegionalDisplayName: "(US) " + display,
	}
}

// Fail makes every scoped list for subscriptionID return err. A nil err
// clears the failure.
func (s *Services) Fail(subscriptionID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, normalize(subscriptionID))
		return
	}
	s.failures[normalize(subscriptionID)] = err
}

// Calls lists the subscription ids method was called with, in call order.
// ListSubscriptions records an empty id.
func (s *Services) Calls(method string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls[method])
}

func (s *Services) ListSubscriptions(ctx context.Context) ([]arm.Subscription, error) {
	if err := s.enter(ctx, "ListSubscriptions", ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.subscriptions), nil
}

func (s *Services) ListStorageAccounts(ctx context.Context, subscriptionID string) ([]arm.StorageAccount, error) {
	if err := s.enter(ctx, "ListStorageAccounts", subscriptionID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.storage[normalize(subscriptionID)]), nil
}

func (s *Services) ListResourceGroups(ctx context.Context, subscriptionID string) ([]arm.ResourceGroup, error) {
	if err := s.enter(ctx, "ListResourceGroups", subscriptionID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.groups[normalize(subscriptionID)]), nil
}

func (s *Services) ListLocations(ctx context.Context, subscriptionID string) ([]arm.Location, error) {
	if err := s.enter(ctx, "ListLocations", subscriptionID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.locations[normalize(subscriptionID)]), nil
}

func (s *Services) enter(ctx context.Context, method, subscriptionID string) error {
	s.mu.Lock()
	s.calls[method] = append(s.calls[method], subscriptionID)
	delay := s.delay
	failure := s.failures[normalize(subscriptionID)]
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if subscriptionID != "" {
		return failure
	}
	return nil
}

// normalize accepts either a plain id or a "/subscriptions/<id>" resource id.
func normalize(subscriptionID string) string {
	return strings.ToLower(strings.TrimPrefix(subscriptionID, "/subscriptions/"))
}
