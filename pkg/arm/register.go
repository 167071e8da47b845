package arm

import (
	"go.uber.org/multierr"

	"github.com/goliatone/go-formflow/pkg/definition"
)

// Register adds the subscription, storage account, resource group and
// location kinds to reg, all backed by svc.
func Register(reg *definition.Registry, svc Services) error {
	return multierr.Combine(
		reg.Register(KindSubscription, definition.Kind(NewSubscription(svc))),
		reg.Register(KindStorageAccount, definition.Kind(NewStorageAccount(svc))),
		reg.Register(KindResourceGroup, definition.Kind(NewResourceGroup(svc))),
		reg.Register(KindLocation, definition.Kind(NewLocation(svc))),
	)
}
