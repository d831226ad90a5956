package timer

import (
	"math/rand/v2"
	"time"
)

// QuoteToastDuration is how long the start-of-session quote stays up.
const QuoteToastDuration = 10 * time.Second

// StudyQuotes greet the first study countdown of a session.
var StudyQuotes = []string{
	"Creativity is just connecting things. - Steve Jobs",
	"Happiness is when what you think, what you say, and what you do are in harmony. - Mahatma Gandhi",
	"The biggest adventure you can take is to live the life of your dreams. - Oprah Winfrey",
	"Lead from the back and let others believe they are in front. - Nelson Mandela",
	"Success is not final, failure is not fatal: It is the courage to continue that counts. - Winston Churchill",
	"Success is not how high you have climbed, but how you make a positive difference to the world. - Roy T. Bennett",
	"Your work is going to fill a large part of your life, and the only way to be truly satisfied is to do what you believe is great work. And the only way to do great work is to love what you do. - Steve Jobs",
	"It is our choices that show what we truly are, far more than our abilities. - J.K. Rowling",
	"Every child is an artist. The problem is how to remain an artist once we grow up. - Pablo Picasso",
	"Happiness is the key to success. If you love what you are doing, you will be successful. - Albert Schweitzer",
	"A leader is one who knows the way, goes the way, and shows the way. - John C. Maxwell",
	"You have power over your mind, not outside events. Realize this, and you will find strength. - Marcus Aurelius",
}

// CompletionQuotes greet a break that follows finished work.
var CompletionQuotes = []string{
	"Well done! The journey of a thousand miles begins with a single step. - Lao Tzu",
	"Great job! Continuous effort, not strength or intelligence, is the key to unlocking our potential. - Winston Churchill",
	"You did it! Success is the sum of small efforts, repeated day in and day out. - Robert Collier",
	"Session complete! Don't watch the clock; do what it does. Keep going. - Sam Levenson",
	"Excellent work! The secret of getting ahead is getting started. - Mark Twain",
	"Nice! Quality is never an accident; it is always the result of intelligent effort. - John Ruskin",
	"Another session finished! Energy and persistence conquer all things. - Benjamin Franklin",
	"Well done! Motivation is what gets you started. Habit is what keeps you going. - Jim Ryun",
	"Congrats! Great things are done by a series of small things brought together. - Vincent Van Gogh",
	"Session completed! Don't be afraid to give up the good to go for the great. - John D. Rockefeller",
}

func pickQuote(study bool, pick func(n int) int) string {
	list := CompletionQuotes
	if study {
		list = StudyQuotes
	}
	if pick == nil {
		pick = rand.IntN
	}
	i := pick(len(list))
	if i < 0 || i >= len(list) {
		i = 0
	}
	return list[i]
}
