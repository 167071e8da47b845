package arm

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/goliatone/go-formflow/pkg/form"
	"github.com/goliatone/go-formflow/pkg/loader"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// ErrNoService is the load error of a kind constructed without a service.
var ErrNoService = errors.New("arm: service not configured")

// Kind names registered by this package.
const (
	KindSubscription   = "subscription"
	KindStorageAccount = "storageAccount"
	KindResourceGroup  = "resourceGroup"
	KindLocation       = "location"
)

// resourceList is the shared half of every kind here: a parameter whose
// options come from a loader, keyed by the string stored as its value.
type resourceList[T any] struct {
	*form.BaseParameter
	noun    string
	key     func(T) string
	display func(T) string
	loader  *loader.Loader[[]T]
}

// Choice is one selectable option: the stored value and its display label.
type Choice struct {
	Value string
	Label string
}

func newResourceList[T any](base *form.BaseParameter, noun string, key, sortKey func(T) string, fetch func(ctx context.Context, subscriptionID string) ([]T, error), scoped bool) resourceList[T] {
	r := resourceList[T]{BaseParameter: base, noun: noun, key: key, display: sortKey}
	r.loader = loader.Attach(context.Background(), base, func(ctx context.Context) ([]T, error) {
		subscriptionID := ""
		if scoped {
			subscriptionID = base.DependencyString(RoleSubscriptionID)
			if subscriptionID == "" {
				return nil, nil
			}
		}
		items, err := fetch(ctx, subscriptionID)
		if err != nil {
			return nil, err
		}
		items = slices.Clone(items)
		slices.SortStableFunc(items, func(a, b T) int {
			return strings.Compare(strings.ToLower(sortKey(a)), strings.ToLower(sortKey(b)))
		})
		return items, nil
	})
	return r
}

// Options is the latest loaded option list, sorted by display name.
func (r *resourceList[T]) Options() []T {
	return r.loader.Data()
}

// Choices waits for the pending load and returns the options as choices.
func (r *resourceList[T]) Choices(ctx context.Context) ([]Choice, error) {
	items, err := r.loader.Wait(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Choice, 0, len(items))
	for _, item := range items {
		out = append(out, Choice{Value: r.key(item), Label: r.display(item)})
	}
	return out, nil
}

// Selected returns the loaded option matching the current value.
func (r *resourceList[T]) Selected() (T, bool) {
	var zero T
	value, _ := r.Value().(string)
	if value == "" {
		return zero, false
	}
	for _, item := range r.loader.Data() {
		if strings.EqualFold(r.key(item), value) {
			return item, true
		}
	}
	return zero, false
}

func (r *resourceList[T]) Loading() bool { return r.loader.Loading() }
func (r *resourceList[T]) LoadErr() error { return r.loader.Err() }
func (r *resourceList[T]) Reload()        { r.loader.Reload() }
func (r *resourceList[T]) Close()         { r.loader.Close() }

// Wait blocks for the latest load and returns its result.
func (r *resourceList[T]) Wait(ctx context.Context) ([]T, error) {
	return r.loader.Wait(ctx)
}

// loadError reports the latest settled load's failure. A load in flight
// hides the previous error until it settles.
func (r *resourceList[T]) loadError() *validation.Status {
	if r.loader.Loading() {
		return nil
	}
	if err := r.loader.Err(); err != nil {
		return validation.Errorf("Error loading %s: %v", r.noun, err).WithData("loadError")
	}
	return nil
}

// ValidateSync reports a failed load before the base checks.
func (r *resourceList[T]) ValidateSync(ctx context.Context) *validation.Status {
	if status := r.loadError(); status != nil {
		return status
	}
	return r.BaseParameter.ValidateSync(ctx)
}

// ValidateAsync runs after pending loads have settled, so it observes load
// failures the sync phase could not see yet.
func (r *resourceList[T]) ValidateAsync(ctx context.Context) (*validation.Status, error) {
	if status := r.loadError(); status != nil {
		return status, nil
	}
	return r.BaseParameter.ValidateAsync(ctx)
}

// SubscriptionParameter selects a subscription by its subscription id.
type SubscriptionParameter struct {
	resourceList[Subscription]
}

// NewSubscription returns a constructor for form.Param.
func NewSubscription(svc SubscriptionService) func(*form.BaseParameter) *SubscriptionParameter {
	return func(base *form.BaseParameter) *SubscriptionParameter {
		fetch := func(ctx context.Context, _ string) ([]Subscription, error) {
			if svc == nil {
				return nil, ErrNoService
			}
			return svc.ListSubscriptions(ctx)
		}
		return &SubscriptionParameter{newResourceList(base, "subscriptions",
			func(s Subscription) string { return s.SubscriptionID },
			func(s Subscription) string { return s.DisplayName },
			fetch, false)}
	}
}

func (p *SubscriptionParameter) Kind() string { return KindSubscription }

// StorageAccountParameter selects a storage account by resource id.
type StorageAccountParameter struct {
	resourceList[StorageAccount]
}

// NewStorageAccount returns a constructor for form.Param. The parameter
// should declare the RoleSubscriptionID dependency.
func NewStorageAccount(svc StorageAccountService) func(*form.BaseParameter) *StorageAccountParameter {
	return func(base *form.BaseParameter) *StorageAccountParameter {
		fetch := func(ctx context.Context, subscriptionID string) ([]StorageAccount, error) {
			if svc == nil {
				return nil, ErrNoService
			}
			return svc.ListStorageAccounts(ctx, subscriptionID)
		}
		return &StorageAccountParameter{newResourceList(base, "storage accounts",
			func(s StorageAccount) string { return s.ID },
			func(s StorageAccount) string { return s.Name },
			fetch, true)}
	}
}

func (p *StorageAccountParameter) Kind() string { return KindStorageAccount }

// ResourceGroupParameter selects a resource group by resource id.
type ResourceGroupParameter struct {
	resourceList[ResourceGroup]
}

func NewResourceGroup(svc ResourceGroupService) func(*form.BaseParameter) *ResourceGroupParameter {
	return func(base *form.BaseParameter) *ResourceGroupParameter {
		fetch := func(ctx context.Context, subscriptionID string) ([]ResourceGroup, error) {
			if svc == nil {
				return nil, ErrNoService
			}
			return svc.ListResourceGroups(ctx, subscriptionID)
		}
		return &ResourceGroupParameter{newResourceList(base, "resource groups",
			func(g ResourceGroup) string { return g.ID },
			func(g ResourceGroup) string { return g.Name },
			fetch, true)}
	}
}

func (p *ResourceGroupParameter) Kind() string { return KindResourceGroup }

// LocationParameter selects a location by resource id.
type LocationParameter struct {
	resourceList[Location]
}

func NewLocation(svc LocationService) func(*form.BaseParameter) *LocationParameter {
	return func(base *form.BaseParameter) *LocationParameter {
		fetch := func(ctx context.Context, subscriptionID string) ([]Location, error) {
			if svc == nil {
				return nil, ErrNoService
			}
			return svc.ListLocations(ctx, subscriptionID)
		}
		return &LocationParameter{newResourceList(base, "locations",
			func(l Location) string { return l.ID },
			func(l Location) string { return l.DisplayName },
			fetch, true)}
	}
}

func (p *LocationParameter) Kind() string { return KindLocation }
