// Package lead implements lead lifecycle management.
//
// The service layer contains all business logic for uploading, filtering, and
// transitioning leads. It depends on the Repository interface defined in this
// package and should never import from api/.
//
// Repository implementations live in repository/postgres/.
package lead
