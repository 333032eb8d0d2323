package cart_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/kiwari-pos/storefront/internal/cart"
	"github.com/kiwari-pos/storefront/internal/restaurant"
	"github.com/kiwari-pos/storefront/internal/session"
)

type cartTestContext struct {
	provider *session.MemoryProvider
	sid      uuid.UUID
	store    *cart.Store
	items    []cart.Item
}

func (c *cartTestContext) reset() {
	c.provider = nil
	c.store = nil
	c.items = nil
}

func (c *cartTestContext) anEmptySession() error {
	c.provider = session.NewMemoryProvider()
	c.sid = session.NewID()
	return nil
}

func (c *cartTestContext) theCartOfRestaurant(ctx context.Context, id string) error {
	if c.provider == nil {
		return errors.New("no session")
	}
	c.store = cart.Open(ctx, c.provider.Scope(c.sid), id, nil)
	c.items = c.store.Items()
	return nil
}

func (c *cartTestContext) iAddMenuItem(ctx context.Context, id, name string, price int) error {
	c.items = c.store.AddItem(ctx, restaurant.MenuItem{ID: id, Name: name, Price: int64(price)})
	return nil
}

func (c *cartTestContext) iRemoveItem(ctx context.Context, id string) error {
	c.items = c.store.RemoveItem(ctx, id)
	return nil
}

func (c *cartTestContext) theCartHasEntries(n int) error {
	if len(c.items) != n {
		return fmt.Errorf("expected %d entries, got %d: %+v", n, len(c.items), c.items)
	}
	return nil
}

func (c *cartTestContext) entryHas(id, name string, price, quantity int) error {
	for _, it := range c.items {
		if it.ID != id {
			continue
		}
		if it.Name != name || it.UnitPrice != int64(price) || it.Quantity != quantity {
			return fmt.Errorf("entry %s: got %+v", id, it)
		}
		return nil
	}
	return fmt.Errorf("entry %s not in cart %+v", id, c.items)
}

func (c *cartTestContext) theSessionStores(ctx context.Context, want, restaurantID string) error {
	data, found, err := c.provider.Scope(c.sid).GetItem(ctx, cart.Key(restaurantID))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("nothing stored under %s", cart.Key(restaurantID))
	}
	if string(data) != want {
		return fmt.Errorf("expected %s, got %s", want, data)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty session$`, tc.anEmptySession)
	ctx.Step(`^the cart of restaurant "([^"]*)"$`, tc.theCartOfRestaurant)

	// When steps
	ctx.Step(`^I add menu item "([^"]*)" named "([^"]*)" priced (\d+)$`, tc.iAddMenuItem)
	ctx.Step(`^I remove item "([^"]*)"$`, tc.iRemoveItem)
	ctx.Step(`^I reopen the cart of restaurant "([^"]*)"$`, tc.theCartOfRestaurant)

	// Then steps
	ctx.Step(`^the cart has (\d+) entr(?:y|ies)$`, tc.theCartHasEntries)
	ctx.Step(`^entry "([^"]*)" has name "([^"]*)", price (\d+) and quantity (\d+)$`, tc.entryHas)
	ctx.Step(`^the session stores "([^"]*)" for restaurant "([^"]*)"$`, tc.theSessionStores)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
