// Package watch turns file system changes under a project root into calls
// of a registry lifecycle hook. A Source reports changed paths; a Controller
// coalesces bursts of them and fires the hook once per quiet period.
package watch
