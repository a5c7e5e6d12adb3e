package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=roles.go -destination=mocks/mock_roles.go -package=mocks

// Chef builds the ingredients handed out by the scheduler.
type Chef interface {
	// Cook starts building one ingredient whose prerequisites are all done. It must not
	// block on the build itself and must call whenDone exactly once with the result.
	Cook(ctx context.Context, ingredient *domain.Ingredient, whenDone func(ok bool))
	// Done is called once after every started ingredient reported back.
	Done(allSucceeded bool)
}

// SkipObserver is implemented by chefs that want to hear about ingredients that were
// never started because a prerequisite failed.
type SkipObserver interface {
	Skipped(ingredient *domain.Ingredient)
}

// ProductListener hears about product definitions coming and going.
type ProductListener interface {
	// ProductChanged is called with every new or redefined product.
	ProductChanged(product *domain.Product)
	// ProductDestroyed is called when a product is no longer defined.
	ProductDestroyed(name string)
}

// ToolListener hears about tool script changes.
type ToolListener interface {
	ToolChanged(tool string)
}

// FileListener hears about content changes in the client tree.
type FileListener interface {
	FilesChanged(changes []domain.FileChange)
}
