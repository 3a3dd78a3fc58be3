package testplan

// SetName returns an UpdateSetter that sets the test plan's name.
func SetName(name string) UpdateSetter {
	return func(tp *TestPlan) error {
		if name == "" {
			return ErrInvalidPlanName
		}
		tp.Name = name
		return nil
	}
}

// SetProduct returns an UpdateSetter that sets the test plan's product.
func SetProduct(product string) UpdateSetter {
	return func(tp *TestPlan) error {
		if product == "" {
			return ErrInvalidProduct
		}
		tp.Product = product
		return nil
	}
}

// SetProductVersion returns an UpdateSetter that sets the product version.
func SetProductVersion(version string) UpdateSetter {
	return func(tp *TestPlan) error {
		tp.ProductVersion = version
		return nil
	}
}

// SetActive returns an UpdateSetter that sets the plan's active status.
func SetActive(active bool) UpdateSetter {
	return func(tp *TestPlan) error {
		tp.IsActive = active
		return nil
	}
}
