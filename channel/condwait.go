// Copyright 2026 The ScalarVM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package channel

import (
	"sync"
	"time"
)

// condWaitTimeout waits on c, which must be held locked by the
// caller, for at most d before giving up. Returns true if it woke
// because of a genuine Signal/Broadcast, false if it timed out.
// sync.Cond has no native deadline, so a timer thread broadcasts past
// the deadline and a side channel distinguishes the two wakeups.
func condWaitTimeout(c *sync.Cond, d time.Duration) bool {
	timedOut := false
	var once sync.Once

	timer := time.AfterFunc(d, func() {
		c.L.Lock()
		once.Do(func() { timedOut = true })
		c.Broadcast()
		c.L.Unlock()
	})
	c.Wait()
	timer.Stop()
	return !timedOut
}
