package arm_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/arm"
	"github.com/goliatone/go-formflow/pkg/arm/fake"
	"github.com/goliatone/go-formflow/pkg/definition"
)

const accountDefinition = `
title: Storage account
fields:
  - name: subId
    kind: subscription
    label: Subscription
    required: true
  - name: storageAccountId
    kind: storageAccount
    label: Storage account
    dependsOn:
      subscriptionId: subId
`

func TestRegisterDefinitionKinds(t *testing.T) {
	t.Parallel()

	reg := definition.NewRegistry()
	if err := arm.Register(reg, fake.New()); err != nil {
		t.Fatalf("register: %v", err)
	}
	def, err := definition.Parse([]byte(accountDefinition), definition.FormatYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f, err := definition.Build(def, reg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	p, err := f.Parameter("storageAccountId")
	if err != nil {
		t.Fatalf("parameter: %v", err)
	}
	storage, ok := p.(*arm.StorageAccountParameter)
	if !ok {
		t.Fatalf("expected *arm.StorageAccountParameter, got %T", p)
	}
	t.Cleanup(storage.Close)
	if sub, err := f.Parameter("subId"); err == nil {
		t.Cleanup(sub.(*arm.SubscriptionParameter).Close)
	}

	ctx := testContext(t)
	f.UpdateValue("subId", fake.Nekomata)
	accounts, err := storage.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if diff := cmp.Diff([]string{"storageD", "storageE"}, names(accounts)); diff != "" {
		t.Fatalf("accounts mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	t.Parallel()

	reg := definition.NewRegistry()
	svc := fake.New()
	if err := arm.Register(reg, svc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := arm.Register(reg, svc); !errors.Is(err, definition.ErrKindExists) {
		t.Fatalf("expected ErrKindExists, got %v", err)
	}
}
