package domain

// Ingredient is the unit of scheduling for one product within one recipe.
type Ingredient struct {
	Product string
	// Prerequisites are the names of the products that must be built first.
	Prerequisites []string
	// Postrequisites move one step closer to ready when this ingredient is done.
	Postrequisites []*Ingredient
}

// Recipe is the set of ingredients needed for a goal set, reachable from its starting points.
type Recipe struct {
	// Starts are the ingredients without prerequisites.
	Starts []*Ingredient
}

// Ingredients returns every ingredient of the recipe, breadth first from the starting points.
func (r *Recipe) Ingredients() []*Ingredient {
	seen := make(map[*Ingredient]struct{})
	var out []*Ingredient
	queue := append([]*Ingredient(nil), r.Starts...)
	for len(queue) > 0 {
		ing := queue[0]
		queue = queue[1:]
		if _, ok := seen[ing]; ok {
			continue
		}
		seen[ing] = struct{}{}
		out = append(out, ing)
		queue = append(queue, ing.Postrequisites...)
	}
	return out
}

// Len returns the number of ingredients in the recipe.
func (r *Recipe) Len() int {
	return len(r.Ingredients())
}

// Products returns the product names of the recipe in breadth first order.
func (r *Recipe) Products() []string {
	ings := r.Ingredients()
	names := make([]string, len(ings))
	for i, ing := range ings {
		names[i] = ing.Product
	}
	return names
}
