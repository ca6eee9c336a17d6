// Package logging provides structured logging helpers on top of log/slog.
//
// It keeps attribute names consistent across packages and hashes user email
// addresses before they reach a log line.
//
//	logger := logging.WithOperation(slog.Default(), "suggest")
//	logger.Info("suggestions generated",
//	    logging.UserID(userID),
//	    logging.CandidateID(candidateID),
//	    logging.Status(logging.StatusSuccess))
package logging
