package lifecycle

import (
	"github.com/google/uuid"

	"github.com/mythra-labs/mythra-backend/pkg/db/models"
)

// VotingStatus is the single source of truth for DAO completion.
type VotingStatus struct {
	AllVoted       bool               `json:"all_voted"`
	TotalInvestors int                `json:"total_investors"`
	TotalQuestions int                `json:"total_questions"`
	Investors      []InvestorProgress `json:"investors"`
	Questions      []QuestionProgress `json:"questions"`
}

// InvestorProgress reports which questions one investor still has to answer.
type InvestorProgress struct {
	InvestorID       uuid.UUID   `json:"investor_id"`
	Answered         int         `json:"answered"`
	PendingQuestions []uuid.UUID `json:"pending_question_ids"`
	Complete         bool        `json:"complete"`
}

// QuestionProgress reports turnout and the option tally for one question.
type QuestionProgress struct {
	QuestionID   uuid.UUID         `json:"question_id"`
	Votes        int               `json:"votes"`
	Pending      int               `json:"pending"`
	OptionCounts map[uuid.UUID]int `json:"option_counts"`
}

type voteKey struct {
	investor uuid.UUID
	question uuid.UUID
}

// CheckVotingComplete reports whether every investor has voted on every question.
// Votes from non-investors or for unknown questions are ignored. With no investors
// AllVoted is false; callers decide whether that case may proceed.
func CheckVotingComplete(questions []models.DAOQuestion, investors []uuid.UUID, votes []models.DAOVote) VotingStatus {
	distinct := dedupe(investors)
	investorSet := make(map[uuid.UUID]struct{}, len(distinct))
	for _, id := range distinct {
		investorSet[id] = struct{}{}
	}

	questionIdx := make(map[uuid.UUID]int, len(questions))
	progress := make([]QuestionProgress, 0, len(questions))
	for _, q := range questions {
		if _, seen := questionIdx[q.ID]; seen {
			continue
		}
		questionIdx[q.ID] = len(progress)
		progress = append(progress, QuestionProgress{QuestionID: q.ID, OptionCounts: map[uuid.UUID]int{}})
	}

	cast := make(map[voteKey]struct{}, len(votes))
	for _, v := range votes {
		idx, known := questionIdx[v.QuestionID]
		if !known {
			continue
		}
		if _, ok := investorSet[v.InvestorID]; !ok {
			continue
		}
		key := voteKey{investor: v.InvestorID, question: v.QuestionID}
		if _, dup := cast[key]; dup {
			continue
		}
		cast[key] = struct{}{}
		progress[idx].Votes++
		progress[idx].OptionCounts[v.OptionID]++
	}

	status := VotingStatus{
		TotalInvestors: len(distinct),
		TotalQuestions: len(progress),
		Investors:      make([]InvestorProgress, 0, len(distinct)),
		Questions:      progress,
	}

	allVoted := len(distinct) > 0
	for _, investor := range distinct {
		ip := InvestorProgress{InvestorID: investor, PendingQuestions: []uuid.UUID{}}
		for _, q := range progress {
			if _, ok := cast[voteKey{investor: investor, question: q.QuestionID}]; ok {
				ip.Answered++
				continue
			}
			ip.PendingQuestions = append(ip.PendingQuestions, q.QuestionID)
		}
		ip.Complete = len(ip.PendingQuestions) == 0
		if !ip.Complete {
			allVoted = false
		}
		status.Investors = append(status.Investors, ip)
	}

	for i := range status.Questions {
		status.Questions[i].Pending = len(distinct) - status.Questions[i].Votes
	}

	status.AllVoted = allVoted
	return status
}

// PendingVotes counts the (investor, question) pairs still missing a vote.
func (s VotingStatus) PendingVotes() int {
	total := 0
	for _, ip := range s.Investors {
		total += len(ip.PendingQuestions)
	}
	return total
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
