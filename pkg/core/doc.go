// Package core defines the shared language of the LeapEdit system.
//
// This package contains:
//   - Editable entities (Column, Index, Constraint, Row, Object, Variable)
//   - Cell values for row data (CellValue, LobRef) and row addressing (RowIdentity)
//   - Comparable field lists and the structural diff over them
//   - Adapter configuration and static dialect configuration
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
