package service

import (
	"fmt"
	"math/rand"

	"github.com/lshigami/Skillgate/internal/model"
)

// Deterministic stage content used whenever generation fails. Activation must
// always leave the attempt with usable content, so every stage has a canned
// set to fall back on.

func fallbackMCQ(skills []string, count int) []model.MCQQuestion {
	if len(skills) == 0 {
		skills = []string{"programming"}
	}
	limit := count
	if max := len(skills) * 3; max < limit {
		limit = max
	}
	questions := make([]model.MCQQuestion, 0, limit)
	for i := 0; i < limit; i++ {
		skill := skills[i%len(skills)]
		options := []string{
			fmt.Sprintf("A fundamental principle of %s", skill),
			fmt.Sprintf("A framework commonly used with %s", skill),
			fmt.Sprintf("A design pattern in %s", skill),
			fmt.Sprintf("A tool used alongside %s", skill),
		}
		correct := options[0]
		rand.Shuffle(len(options), func(a, b int) { options[a], options[b] = options[b], options[a] })
		correctIdx := 0
		for j, o := range options {
			if o == correct {
				correctIdx = j
				break
			}
		}
		difficulty := "hard"
		switch i % 3 {
		case 0:
			difficulty = "easy"
		case 1:
			difficulty = "medium"
		}
		questions = append(questions, model.MCQQuestion{
			ID:            i + 1,
			Question:      fmt.Sprintf("Which of the following best describes a core concept of %s?", skill),
			Skill:         skill,
			Difficulty:    difficulty,
			Options:       options,
			CorrectAnswer: correctIdx,
			Explanation:   fmt.Sprintf("This is a fundamental concept in %s.", skill),
		})
	}
	return questions
}

func fallbackCodingProblems(count int, difficulty string) []model.CodingProblem {
	all := []model.CodingProblem{
		{
			ID: 1, Title: "Two Sum", Difficulty: "easy",
			Description:  "Given an array of integers nums and an integer target, return indices of the two numbers that add up to target.",
			SkillsTested: []string{"arrays", "hash-maps"},
			InputFormat:  "First line: space-separated integers\nSecond line: target integer",
			OutputFormat: "Space-separated indices",
			SampleInput:  "2 7 11 15\n9", SampleOutput: "0 1",
			TestCases: []model.CodingTestCase{
				{Input: "2 7 11 15\n9", ExpectedOutput: "0 1"},
				{Input: "3 2 4\n6", ExpectedOutput: "1 2"},
				{Input: "3 3\n6", ExpectedOutput: "0 1"},
			},
			StarterCode: map[string]string{
				"python": `import sys

def two_sum(nums, target):
    # Write your code here
    # Return a list of two indices [i, j]
    pass

# !!! DO NOT EDIT BELOW THIS LINE !!!
if __name__ == '__main__':
    try:
        input_line = sys.stdin.readline()
        if not input_line:
            exit(0)
        nums = list(map(int, input_line.split()))
        target = int(sys.stdin.readline())

        result = two_sum(nums, target)
        if result:
            print(f"{result[0]} {result[1]}")
    except Exception as e:
        pass`,
				"javascript": `const fs = require('fs');

function twoSum(nums, target) {
    // Write your code here
    // Return an array [i, j]
    return [];
}

// !!! DO NOT EDIT BELOW THIS LINE !!!
try {
    const input = fs.readFileSync(0, 'utf-8').trim().split('\n');
    if (input.length >= 2) {
        const nums = input[0].trim().split(/\s+/).map(Number);
        const target = Number(input[1].trim());
        const result = twoSum(nums, target);
        if (result && result.length === 2) {
            console.log(result.join(' '));
        }
    }
} catch (e) {}`,
			},
			TimeLimitSeconds: 5,
			Hints:            []string{"Try using a hash map", "Store complement values"},
		},
		{
			ID: 2, Title: "Valid Parentheses", Difficulty: "medium",
			Description:  "Given a string containing just the characters '(', ')', '{', '}', '[' and ']', determine if the input string is valid.",
			SkillsTested: []string{"stacks", "string-processing"},
			InputFormat:  "A string of brackets", OutputFormat: "true or false",
			SampleInput: "()[]{}", SampleOutput: "true",
			TestCases: []model.CodingTestCase{
				{Input: "()", ExpectedOutput: "true"},
				{Input: "()[]{}", ExpectedOutput: "true"},
				{Input: "(]", ExpectedOutput: "false"},
			},
			StarterCode: map[string]string{
				"python": `import sys

def isValid(s):
    # Write your code here
    return False

# !!! DO NOT EDIT BELOW THIS LINE !!!
if __name__ == '__main__':
    s = sys.stdin.read().strip()
    if s:
        print("true" if isValid(s) else "false")`,
				"javascript": `const fs = require('fs');

function isValid(s) {
    // Write your code here
    return false;
}

// !!! DO NOT EDIT BELOW THIS LINE !!!
try {
    const s = fs.readFileSync(0, 'utf-8').trim();
    if (s) {
        console.log(isValid(s) ? 'true' : 'false');
    }
} catch (e) {}`,
			},
			TimeLimitSeconds: 5,
			Hints:            []string{"Use a stack", "Push opening brackets, pop for closing"},
		},
		{
			ID: 3, Title: "Longest Substring Without Repeating Characters", Difficulty: "hard",
			Description:  "Given a string s, find the length of the longest substring without repeating characters.",
			SkillsTested: []string{"sliding-window", "hash-maps"},
			InputFormat:  "A string", OutputFormat: "An integer",
			SampleInput: "abcabcbb", SampleOutput: "3",
			TestCases: []model.CodingTestCase{
				{Input: "abcabcbb", ExpectedOutput: "3"},
				{Input: "bbbbb", ExpectedOutput: "1"},
				{Input: "pwwkew", ExpectedOutput: "3"},
			},
			StarterCode: map[string]string{
				"python": `import sys

def lengthOfLongestSubstring(s):
    # Write your code here
    return 0

# !!! DO NOT EDIT BELOW THIS LINE !!!
if __name__ == '__main__':
    s = sys.stdin.read().strip()
    if s:
        print(lengthOfLongestSubstring(s))`,
				"javascript": `const fs = require('fs');

function lengthOfLongestSubstring(s) {
    // Write your code here
    return 0;
}

// !!! DO NOT EDIT BELOW THIS LINE !!!
try {
    const s = fs.readFileSync(0, 'utf-8').trim();
    if (s) {
        console.log(lengthOfLongestSubstring(s));
    }
} catch (e) {}`,
			},
			TimeLimitSeconds: 5,
			Hints:            []string{"Sliding window technique", "Use a set to track characters"},
		},
	}

	filtered := all
	if difficulty != "" && difficulty != "mixed" {
		filtered = nil
		for _, p := range all {
			if p.Difficulty == difficulty {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			filtered = all
		}
	}
	if count > len(filtered) {
		count = len(filtered)
	}
	return filtered[:count]
}

// sandboxTables maps logical table names to the per-test sandbox names.
type sandboxTables struct {
	Employees   string
	Departments string
	Projects    string
	Orders      string
}

func defaultSQLProblems(count int, t sandboxTables) []model.SQLProblem {
	all := []model.SQLProblem{
		{
			ID: 1, Title: "Employee Salary Report", Difficulty: "easy",
			Description: fmt.Sprintf("Find all employees in the %s table who earn more than the average salary. Display their name, department, and salary. Order by salary descending.", t.Employees),
			Hint:        "Use a subquery with AVG() to calculate the average salary.",
			ExpectedColumns: []string{"name", "department", "salary"},
			ReferenceQuery:  fmt.Sprintf("SELECT name, department, salary FROM %s WHERE salary > (SELECT AVG(salary) FROM %s) ORDER BY salary DESC", t.Employees, t.Employees),
		},
		{
			ID: 2, Title: "Department Statistics", Difficulty: "medium",
			Description: fmt.Sprintf("Using the %s table, show each department with the count of employees and average salary. Only include departments with more than 1 employee. Order by average salary descending.", t.Employees),
			Hint:        "Use GROUP BY with HAVING clause.",
			ExpectedColumns: []string{"department", "employee_count", "avg_salary"},
			ReferenceQuery:  fmt.Sprintf("SELECT department, COUNT(*) as employee_count, ROUND(AVG(salary), 2) as avg_salary FROM %s GROUP BY department HAVING COUNT(*) > 1 ORDER BY avg_salary DESC", t.Employees),
		},
		{
			ID: 3, Title: "Top Revenue Products", Difficulty: "hard",
			Description: fmt.Sprintf("Using the %s table, find the top 3 products by total revenue (quantity * price). Show product name, total quantity sold, and total revenue.", t.Orders),
			Hint:        "Use GROUP BY with aggregate functions and LIMIT.",
			ExpectedColumns: []string{"product", "total_quantity", "total_revenue"},
			ReferenceQuery:  fmt.Sprintf("SELECT product, SUM(quantity) as total_quantity, SUM(quantity * price) as total_revenue FROM %s GROUP BY product ORDER BY total_revenue DESC LIMIT 3", t.Orders),
		},
	}
	if count > len(all) {
		count = len(all)
	}
	return all[:count]
}

func fallbackInterviewQuestion(skills []string, questionNumber int) model.InterviewTurn {
	skill := "programming"
	if len(skills) > 0 {
		skill = skills[questionNumber%len(skills)]
	}
	difficulty := "hard"
	if questionNumber <= 3 {
		difficulty = "easy"
	} else if questionNumber <= 7 {
		difficulty = "medium"
	}
	return model.InterviewTurn{
		Question:   fmt.Sprintf("Can you explain your understanding of %s and describe how you would use it in a real project?", skill),
		Category:   skill,
		Difficulty: difficulty,
		KeyPoints:  []string{"Technical depth", "Practical experience", "Problem-solving approach"},
	}
}

// neutralInterviewEvaluation is the verdict used when answer scoring is
// unavailable: a middle score so the candidate is neither punished nor
// rewarded for an infrastructure failure.
func neutralInterviewEvaluation() (score float64, feedback string) {
	return 5, "Answer received. Unable to perform detailed evaluation."
}

func fallbackSQLEvaluation() model.SQLEvaluation {
	return model.SQLEvaluation{
		Passed:   false,
		Feedback: "Unable to evaluate query. Please try again.",
		Score:    0,
	}
}

func defaultReport() *model.ReportDocument {
	return &model.ReportDocument{
		OverallRating: "Average",
		Summary:       "Report generation encountered an issue. Please review individual test results for detailed information.",
		SectionFeedback: map[string]string{
			"mcq": "N/A", "coding": "N/A", "sql": "N/A", "interview": "N/A",
		},
	}
}
