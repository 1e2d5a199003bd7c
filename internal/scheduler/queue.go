package scheduler

import (
	"time"

	"k8s.io/client-go/util/workqueue"
)

// queue wraps a rate-limiting workqueue of due job names.
type queue struct {
	q workqueue.RateLimitingInterface
}

// newQueue creates a workqueue with exponential backoff: base delay 1
// second, max delay 5 minutes.
func newQueue() *queue {
	rateLimiter := workqueue.NewItemExponentialFailureRateLimiter(1*time.Second, 5*time.Minute)
	return &queue{q: workqueue.NewRateLimitingQueue(rateLimiter)}
}

func (q *queue) Add(item interface{})           { q.q.Add(item) }
func (q *queue) Get() (interface{}, bool)       { return q.q.Get() }
func (q *queue) Done(item interface{})          { q.q.Done(item) }
func (q *queue) AddRateLimited(item interface{}) { q.q.AddRateLimited(item) }
func (q *queue) Forget(item interface{})        { q.q.Forget(item) }
func (q *queue) ShutDown()                      { q.q.ShutDown() }
func (q *queue) ShuttingDown() bool             { return q.q.ShuttingDown() }
func (q *queue) Len() int                       { return q.q.Len() }
