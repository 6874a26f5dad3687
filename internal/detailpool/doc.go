// Package detailpool runs video detail fetches on a bounded set of workers
// and hands the results back in the order the videos were requested.
package detailpool
