// Package workspace stages build output in a private directory and publishes
// it into place by rename.
//
// Each compile creates its own timestamped workspace below build/.staging, so
// several isolated builds can stage at once without seeing each other's files.
package workspace
