package calc

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// PipeLine represents a compute pipeline
type PipeLine struct {
	numQueueSize int
	numWorker    int
	jobQueue     chan int
	freeSlots    chan int
	pushCnt      int64
	pushCntLock  sync.RWMutex
	popCnt       int64
	popCntLock   sync.RWMutex
	signal       chan int
	done         chan struct{}
	debug        bool
}

func (p *PipeLine) schedule() {
	defer close(p.done)

	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.signal:
			return
		case <-ticker.C:
			if !p.debug {
				continue
			}

			p.popCntLock.RLock()
			popCnt := p.popCnt
			p.popCntLock.RUnlock()

			p.pushCntLock.RLock()
			pushCnt := p.pushCnt
			p.pushCntLock.RUnlock()

			fmt.Printf("[Time: %s]\n", time.Now())
			fmt.Printf("Push Count: %d\n", pushCnt)
			fmt.Printf("Pop Count: %d\n", popCnt)
			fmt.Printf("Num of Workers: %d\n", p.numWorker)
			fmt.Println("- - - - - - - - - - - - - - - -")
			fmt.Println()
		}
	}
}

// Init returns a compute PipeLine with numQueueSize ring buffer slots and
// numWorker goroutines per operation; numWorker <= 0 means one per CPU
func Init(numQueueSize int, numWorker int, debug bool) *PipeLine {
	if numQueueSize < 1 {
		numQueueSize = 1
	}
	if numWorker <= 0 {
		numWorker = runtime.NumCPU()
	}

	pl := PipeLine{
		numQueueSize: numQueueSize,
		numWorker:    numWorker,
		jobQueue:     make(chan int, numQueueSize),
		freeSlots:    make(chan int, numQueueSize),
		signal:       make(chan int),
		done:         make(chan struct{}),
		debug:        debug,
	}

	for i := 0; i < numQueueSize; i++ {
		pl.freeSlots <- i
	}

	go pl.schedule()

	return &pl
}

// GetNP returns the number of workers per operation
func (p *PipeLine) GetNP() int {
	return p.numWorker
}

// QueueSize returns the number of ring buffer slots
func (p *PipeLine) QueueSize() int {
	return p.numQueueSize
}

// StopScheduler stops the progress reporter
func (p *PipeLine) StopScheduler() {
	p.signal <- 0
	<-p.done
	return
}

// Malloc claims a buffer element in ring buffer, waiting for a free one
func (p *PipeLine) Malloc() int {
	return <-p.freeSlots
}

// Push pushes data to process into the job queue
func (p *PipeLine) Push(jobID int) {
	p.jobQueue <- jobID

	p.pushCntLock.Lock()
	p.pushCnt++
	p.pushCntLock.Unlock()

	return
}

// Close tells consumers no more jobs will be pushed
func (p *PipeLine) Close() {
	close(p.jobQueue)
}

// Pop pops the data from the job queue; ok is false once the queue is closed
// and drained
func (p *PipeLine) Pop() (int, bool) {
	jobID, ok := <-p.jobQueue
	if !ok {
		return 0, false
	}

	p.popCntLock.Lock()
	p.popCnt++
	p.popCntLock.Unlock()

	return jobID, true
}

// Free frees slot from ring buffer
func (p *PipeLine) Free(i int) {
	p.freeSlots <- i

	return
}

/*
	Workflow:

	Malloc -> Push -> Pop -> Free
*/

type statistic struct {
	avg float64
	std float64
}
