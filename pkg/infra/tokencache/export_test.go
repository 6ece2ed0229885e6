package tokencache

import "time"

func (x *Memory) SetClockForTest(now func() time.Time) { x.now = now }
func (x *Bolt) SetClockForTest(now func() time.Time)   { x.now = now }
