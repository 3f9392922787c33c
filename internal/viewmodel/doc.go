// Package viewmodel holds one sub-package per FoodIt screen.
//
// Every screen follows the same shape: an immutable State, a closed set of
// unexported events, a pure reducer and a ViewModel that owns a
// store.Store and exposes intent methods (Refresh, ToggleFavourite, Submit…).
// Repository results arrive as resource.Resource values and are folded into
// state by the reducer; failures become toasts.
package viewmodel
