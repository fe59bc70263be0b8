// Package schedule evaluates the alarm list once per tick and drives the output.
package schedule
