package arm

import "context"

// RoleSubscriptionID is the dependency role that scoped kinds read the
// subscription id from.
const RoleSubscriptionID = "subscriptionId"

type Subscription struct {
	ID             string `json:"id" yaml:"id"`
	SubscriptionID string `json:"subscriptionId" yaml:"subscriptionId"`
	TenantID       string `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	DisplayName    string `json:"displayName" yaml:"displayName"`
	State          string `json:"state,omitempty" yaml:"state,omitempty"`
}

type StorageAccount struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	SKU      string `json:"sku,omitempty" yaml:"sku,omitempty"`
}

type ResourceGroup struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

type Location struct {
	ID                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	DisplayName         string `json:"displayName" yaml:"displayName"`
	RegionalDisplayName string `json:"regionalDisplayName,omitempty" yaml:"regionalDisplayName,omitempty"`
}

// SubscriptionService lists the subscriptions visible to the caller.
type SubscriptionService interface {
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
}

// StorageAccountService lists storage accounts in a subscription.
type StorageAccountService interface {
	ListStorageAccounts(ctx context.Context, subscriptionID string) ([]StorageAccount, error)
}

// ResourceGroupService lists resource groups in a subscription.
type ResourceGroupService interface {
	ListResourceGroups(ctx context.Context, subscriptionID string) ([]ResourceGroup, error)
}

// LocationService lists locations available to a subscription.
type LocationService interface {
	ListLocations(ctx context.Context, subscriptionID string) ([]Location, error)
}

// Services bundles every service the kinds in this package consume.
type Services interface {
	SubscriptionService
	StorageAccountService
	ResourceGroupService
	LocationService
}
