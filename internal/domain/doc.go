// Package domain groups the FoodIt entities and the repository contracts
// the view-models depend on. Implementations live in internal/api (remote
// backend) and in test fakes.
package domain
