package jobs

import (
	"log"
	"os"
	tasks "surecover/task"
	"time"
)

// StartPendingSweeper periodically fails pending transactions whose
// callback never arrived. Enabled by setting MPESA_PENDING_EXPIRY to a
// duration (e.g. "2h"); left unset, stuck rows wait for operator
// correction.
func StartPendingSweeper() {
	expiry, err := time.ParseDuration(os.Getenv("MPESA_PENDING_EXPIRY"))
	if err != nil || expiry <= 0 {
		log.Println("⚠️  Pending sweeper disabled (MPESA_PENDING_EXPIRY not set)")
		return
	}

	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			<-ticker.C
			tasks.ExpireStalePendingTransactions(expiry)
		}
	}()

	log.Printf("✅ Pending sweeper started, expiring after %s", expiry)
}
