// Package arm provides parameter kinds backed by resource-manager style
// services: subscriptions, storage accounts, resource groups and locations.
// Each kind loads its options through a loader.Loader whenever the
// subscription it depends on changes, and reports load failures as
// validation errors.
package arm
