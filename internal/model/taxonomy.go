package model

import "strings"

// Category tells whether a message offers a property or asks for one.
type Category string

// Category values.
const (
	CategoryOffered Category = "Offered"
	CategoryWanted  Category = "Wanted"
	CategoryOther   Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryOffered, CategoryWanted, CategoryOther}

// PropertyType is the kind of property a message is about.
type PropertyType string

// PropertyType values.
const (
	PropertyApartment  PropertyType = "Apartment"
	PropertyLand       PropertyType = "Land"
	PropertyVilla      PropertyType = "Villa"
	PropertyHouse      PropertyType = "House"
	PropertyFarm       PropertyType = "Farm"
	PropertyShop       PropertyType = "Shop"
	PropertyOffice     PropertyType = "Office"
	PropertyBuilding   PropertyType = "Building"
	PropertyStudio     PropertyType = "Studio"
	PropertyDuplex     PropertyType = "Duplex"
	PropertyBasement   PropertyType = "Basement"
	PropertyHangar     PropertyType = "Hangar"
	PropertyFactory    PropertyType = "Factory"
	PropertyWarehouse  PropertyType = "Warehouse"
	PropertyGarage     PropertyType = "Garage"
	PropertyRoof       PropertyType = "Roof"
	PropertyPenthouse  PropertyType = "Penthouse"
	PropertyChalet     PropertyType = "Chalet"
	PropertyClinic     PropertyType = "Clinic"
	PropertyPharmacy   PropertyType = "Pharmacy"
	PropertyCafe       PropertyType = "Cafe"
	PropertyRestaurant PropertyType = "Restaurant"
	PropertyHall       PropertyType = "Hall"
	PropertyOther      PropertyType = "Other"
)

// PropertyTypes lists every property type, Other last.
var PropertyTypes = []PropertyType{
	PropertyApartment, PropertyLand, PropertyVilla, PropertyHouse, PropertyFarm,
	PropertyShop, PropertyOffice, PropertyBuilding, PropertyStudio, PropertyDuplex,
	PropertyBasement, PropertyHangar, PropertyFactory, PropertyWarehouse, PropertyGarage,
	PropertyRoof, PropertyPenthouse, PropertyChalet, PropertyClinic, PropertyPharmacy,
	PropertyCafe, PropertyRestaurant, PropertyHall, PropertyOther,
}

// Purpose is the transaction intent of a message.
type Purpose string

// Purpose values.
const (
	PurposeSale  Purpose = "Sale"
	PurposeRent  Purpose = "Rent"
	PurposeOther Purpose = "Other"
)

// Purposes lists every purpose.
var Purposes = []Purpose{PurposeSale, PurposeRent, PurposeOther}

// RegionOther is the region assigned when no rule matched.
const RegionOther = "Other"

// ParseCategory returns the category whose name equals s, ignoring case.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return CategoryOther, false
}

// ParsePropertyType returns the property type whose name equals s, ignoring case.
func ParsePropertyType(s string) (PropertyType, bool) {
	for _, p := range PropertyTypes {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return PropertyOther, false
}

// ParsePurpose returns the purpose whose name equals s, ignoring case.
func ParsePurpose(s string) (Purpose, bool) {
	for _, p := range Purposes {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return PurposeOther, false
}

// Resolved reports whether c carries information.
func (c Category) Resolved() bool { return c != "" && c != CategoryOther }

// Resolved reports whether p carries information.
func (p PropertyType) Resolved() bool { return p != "" && p != PropertyOther }

// Resolved reports whether p carries information.
func (p Purpose) Resolved() bool { return p != "" && p != PurposeOther }

// RegionResolved reports whether a region label carries information.
func RegionResolved(region string) bool {
	r := strings.TrimSpace(region)
	return r != "" && r != RegionOther
}
