// Package deps resolves the external executables subburn shells out to.
package deps
