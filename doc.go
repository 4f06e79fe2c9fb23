// Package sharedstream shares a single asynchronous, event-producing operation
// between any number of subscribers.
//
// Operations are identified by a string key. The first subscriber for a key
// starts an Executor. Subscribers that arrive while it is running are attached
// to the same execution and receive every event it has emitted so far before
// any new events. When the last subscriber leaves, the execution is canceled.
package sharedstream
